package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

type rekognitionAPI interface {
	DetectLabels(ctx context.Context, in *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
}

// RekognitionService is a cheap pre-check that a photo shows food before
// the slower vision model is called.
type RekognitionService struct {
	client        rekognitionAPI
	minConfidence float32
}

func NewRekognitionService(ctx context.Context, region string) (*RekognitionService, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config for Rekognition: %w", err)
	}
	return &RekognitionService{client: rekognition.NewFromConfig(cfg), minConfidence: 70}, nil
}

var foodLabels = map[string]bool{
	"food": true, "meal": true, "dish": true, "lunch": true, "dinner": true,
	"breakfast": true, "brunch": true, "dessert": true, "snack": true,
	"fruit": true, "vegetable": true, "produce": true, "bread": true,
	"beverage": true, "drink": true, "pizza": true, "burger": true,
	"salad": true, "sandwich": true, "seafood": true, "meat": true,
	"pasta": true, "noodle": true, "rice": true, "soup": true, "sushi": true,
	"cake": true, "egg": true, "platter": true, "bowl": true,
}

// RecognizeLabels returns the labels found in the image.
func (r *RekognitionService) RecognizeLabels(ctx context.Context, image []byte) ([]types.Label, error) {
	out, err := r.client.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image:         &types.Image{Bytes: image},
		MaxLabels:     aws.Int32(15),
		MinConfidence: aws.Float32(r.minConfidence),
	})
	if err != nil {
		return nil, fmt.Errorf("detect labels: %w", err)
	}
	return out.Labels, nil
}

// IsFood reports whether any label, or a label's parent, is food-like.
func (r *RekognitionService) IsFood(ctx context.Context, image []byte) (bool, []string, error) {
	labels, err := r.RecognizeLabels(ctx, image)
	if err != nil {
		return false, nil, err
	}

	names := make([]string, 0, len(labels))
	found := false
	for _, l := range labels {
		name := aws.ToString(l.Name)
		names = append(names, name)
		if foodLabels[strings.ToLower(name)] {
			found = true
		}
		for _, p := range l.Parents {
			if foodLabels[strings.ToLower(aws.ToString(p.Name))] {
				found = true
			}
		}
	}
	return found, names, nil
}
