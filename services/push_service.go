package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Kobaiko/carbculator/models"
)

type snsAPI interface {
	CreatePlatformEndpoint(ctx context.Context, in *awssns.CreatePlatformEndpointInput, optFns ...func(*awssns.Options)) (*awssns.CreatePlatformEndpointOutput, error)
	Publish(ctx context.Context, in *awssns.PublishInput, optFns ...func(*awssns.Options)) (*awssns.PublishOutput, error)
}

// Notifier delivers a push notification to a user's devices.
type Notifier interface {
	PushToUser(ctx context.Context, userID uint, title, body string, data map[string]string)
}

type PushService struct {
	db          *gorm.DB
	sns         snsAPI
	platformArn string
	log         *logrus.Entry
}

// NewPushService creates the SNS client. Without a platform ARN devices are
// still recorded but nothing is published.
func NewPushService(ctx context.Context, db *gorm.DB, region, platformArn string, log *logrus.Logger) (*PushService, error) {
	p := &PushService{db: db, platformArn: platformArn, log: log.WithField("component", "push")}
	if platformArn == "" {
		return p, nil
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config for SNS: %w", err)
	}
	p.sns = awssns.NewFromConfig(cfg)
	return p, nil
}

type RegisterDeviceReq struct {
	Platform string `json:"platform" binding:"required"` // "android" | "ios"
	Token    string `json:"token" binding:"required"`
}

func tokenHash(tok string) string {
	h := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(h[:])
}

func (p *PushService) RegisterDevice(ctx context.Context, userID uint, platform, token string) (*models.UserDevice, error) {
	platform = strings.ToLower(strings.TrimSpace(platform))
	if platform != "android" && platform != "ios" {
		return nil, invalidf("platform must be android or ios")
	}
	if strings.TrimSpace(token) == "" {
		return nil, invalidf("token is required")
	}

	var endpointArn string
	if p.sns != nil {
		out, err := p.sns.CreatePlatformEndpoint(ctx, &awssns.CreatePlatformEndpointInput{
			PlatformApplicationArn: aws.String(p.platformArn),
			Token:                  aws.String(token),
		})
		if err != nil {
			return nil, fmt.Errorf("create platform endpoint: %w", err)
		}
		endpointArn = aws.ToString(out.EndpointArn)
	}

	hash := tokenHash(token)
	db := p.db.WithContext(ctx)

	var existing models.UserDevice
	err := db.Where("user_id = ? AND token_hash = ?", userID, hash).First(&existing).Error
	if err == nil {
		existing.EndpointARN = endpointArn
		existing.Platform = platform
		existing.Enabled = true
		existing.UpdatedAt = time.Now()
		if err := db.Save(&existing).Error; err != nil {
			return nil, dbErr("update device", err)
		}
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, dbErr("find device", err)
	}

	dev := &models.UserDevice{
		UserID:      userID,
		Platform:    platform,
		TokenHash:   hash,
		EndpointARN: endpointArn,
		Enabled:     true,
	}
	if err := db.Create(dev).Error; err != nil {
		return nil, dbErr("create device", err)
	}
	return dev, nil
}

// SetEnabled toggles notifications on all of the user's devices.
func (p *PushService) SetEnabled(ctx context.Context, userID uint, enabled bool) error {
	err := p.db.WithContext(ctx).Model(&models.UserDevice{}).
		Where("user_id = ?", userID).
		Update("enabled", enabled).Error
	return dbErr("toggle notifications", err)
}

func (p *PushService) PushToUser(ctx context.Context, userID uint, title, body string, data map[string]string) {
	if p.sns == nil {
		return
	}
	var endpoints []models.UserDevice
	if err := p.db.WithContext(ctx).Where("user_id = ? AND enabled = ?", userID, true).Find(&endpoints).Error; err != nil {
		p.log.WithError(err).WithField("user_id", userID).Warn("load devices failed")
		return
	}
	if len(endpoints) == 0 {
		return
	}

	gcm, _ := json.Marshal(map[string]any{
		"notification": map[string]string{"title": title, "body": body},
		"data":         data,
	})
	raw, _ := json.Marshal(map[string]string{
		"default": body,
		"GCM":     string(gcm),
	})

	for _, d := range endpoints {
		if d.EndpointARN == "" {
			continue
		}
		_, err := p.sns.Publish(ctx, &awssns.PublishInput{
			MessageStructure: aws.String("json"),
			Message:          aws.String(string(raw)),
			TargetArn:        aws.String(d.EndpointARN),
		})
		if err != nil {
			p.log.WithError(err).WithFields(logrus.Fields{"user_id": userID, "device_id": d.ID}).Warn("push publish failed")
		}
	}
}
