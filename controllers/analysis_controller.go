package controllers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Kobaiko/carbculator/services"
	"github.com/Kobaiko/carbculator/utils"
)

// base64 inflates by 4/3; leave room for the JSON envelope
const maxAnalyzeBody = services.MaxImageBytes*4/3 + 64<<10

type AnalysisController struct {
	Analysis *services.AnalysisService
}

func NewAnalysisController(a *services.AnalysisService) *AnalysisController {
	return &AnalysisController{Analysis: a}
}

type analyzeJSON struct {
	ImageBase64 string     `json:"image_base64" binding:"required"`
	MealType    string     `json:"meal_type"`
	EatenAt     *time.Time `json:"eaten_at"`
	Save        bool       `json:"save"`
}

// POST /api/analysis accepts a multipart "image" file or a JSON body with
// an "image_base64" data URI.
func (ac *AnalysisController) Analyze(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxAnalyzeBody)

	req := services.AnalyzeRequest{UserID: c.GetUint("userID")}
	var err error
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		err = bindMultipartImage(c, &req)
	} else {
		err = bindJSONImage(c, &req)
	}
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) || errors.Is(err, services.ErrImageTooLarge) {
			respondError(c, services.ErrImageTooLarge)
			return
		}
		badRequest(c, err.Error())
		return
	}

	res, err := ac.Analysis.Analyze(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if res.Entry != nil {
		status = http.StatusCreated
	}
	c.JSON(status, res)
}

func bindMultipartImage(c *gin.Context, req *services.AnalyzeRequest) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return err
	}
	if fh.Size > services.MaxImageBytes {
		return services.ErrImageTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()
	if req.Image, err = io.ReadAll(f); err != nil {
		return err
	}

	req.MealType = c.PostForm("meal_type")
	if s := c.PostForm("save"); s != "" {
		if req.Save, err = strconv.ParseBool(s); err != nil {
			return errors.New("save must be true or false")
		}
	}
	if s := c.PostForm("eaten_at"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return errors.New("eaten_at must be RFC 3339")
		}
		req.EatenAt = &t
	}
	return nil
}

func bindJSONImage(c *gin.Context, req *services.AnalyzeRequest) error {
	var body analyzeJSON
	if err := c.ShouldBindJSON(&body); err != nil {
		return err
	}
	img, _, err := utils.DecodeDataURI(body.ImageBase64)
	if err != nil {
		return err
	}
	req.Image, req.MealType, req.EatenAt, req.Save = img, body.MealType, body.EatenAt, body.Save
	return nil
}
