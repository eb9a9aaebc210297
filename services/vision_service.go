package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/Kobaiko/carbculator/nutrition"
)

const visionSystemPrompt = `You are a nutritionist analyzing a photo of a meal.
Identify every food item visible and estimate its portion.
Reply with ONLY a JSON object, no prose, using this shape:
{"is_food": true, "food_name": "short meal name", "description": "one sentence",
 "items": [{"name": "", "portion": "", "calories": 0, "protein": 0, "carbs": 0, "fat": 0, "fiber": 0, "sugar": 0, "sodium": 0}],
 "calories": 0, "protein": 0, "carbs": 0, "fat": 0, "fiber": 0, "sugar": 0, "sodium": 0,
 "confidence": "high|medium|low"}
Calories in kcal, macros, fiber and sugar in grams, sodium in milligrams.
Totals are for the whole plate. If the photo contains no food, set "is_food" to false.`

type FoodItem struct {
	Name     string  `json:"name"`
	Portion  string  `json:"portion,omitempty"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
	Sugar    float64 `json:"sugar"`
	Sodium   float64 `json:"sodium"`
}

// MealAnalysis is the normalized estimate for one photo.
type MealAnalysis struct {
	FoodName    string     `json:"food_name"`
	Description string     `json:"description"`
	Items       []FoodItem `json:"items"`
	Calories    float64    `json:"calories"`
	Protein     float64    `json:"protein"`
	Carbs       float64    `json:"carbs"`
	Fat         float64    `json:"fat"`
	Fiber       float64    `json:"fiber"`
	Sugar       float64    `json:"sugar"`
	Sodium      float64    `json:"sodium"`
	Confidence  string     `json:"confidence"`
}

// VisionClient talks to an OpenAI-compatible chat/completions endpoint.
type VisionClient struct {
	url, apiKey, model string
	client             *http.Client
}

func NewVisionClient(url, apiKey, model string, timeout time.Duration) *VisionClient {
	return &VisionClient{
		url:    url,
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: timeout},
	}
}

type chatContent struct {
	Type     string            `json:"type"`
	Text     string            `json:"text,omitempty"`
	ImageURL map[string]string `json:"image_url,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	MaxTokens      int               `json:"max_tokens"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
}

// AnalyzeImage asks the model for a nutrition estimate of the photo. hint is
// optional extra context such as the meal type.
func (v *VisionClient) AnalyzeImage(ctx context.Context, image []byte, contentType, hint string) (*MealAnalysis, error) {
	if v.apiKey == "" {
		return nil, fmt.Errorf("%w: VISION_API_KEY not set", ErrVisionUnavailable)
	}

	text := "Analyze this meal."
	if hint != "" {
		text += " Context: " + hint + "."
	}
	dataURI := fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(image))

	reqBody := chatRequest{
		Model: v.model,
		Messages: []chatMessage{
			{Role: "system", Content: visionSystemPrompt},
			{Role: "user", Content: []chatContent{
				{Type: "text", Text: text},
				{Type: "image_url", ImageURL: map[string]string{"url": dataURI}},
			}},
		},
		MaxTokens:      1000,
		Temperature:    0.2,
		ResponseFormat: map[string]string{"type": "json_object"},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal vision request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create vision request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+v.apiKey)

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVisionUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read vision response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(body, "error.message").String()
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		return nil, fmt.Errorf("%w: status %d: %s", ErrVisionUnavailable, resp.StatusCode, msg)
	}

	content := gjson.GetBytes(body, "choices.0.message.content")
	if !content.Exists() || strings.TrimSpace(content.String()) == "" {
		return nil, fmt.Errorf("%w: empty completion", ErrVisionUnavailable)
	}
	return ParseMealAnalysis(content.String())
}

// cleanLLMResponse strips markdown fences and cuts to the outer JSON object.
func cleanLLMResponse(response string) string {
	response = strings.ReplaceAll(response, "```json", "")
	response = strings.ReplaceAll(response, "```", "")
	response = strings.TrimSpace(response)

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start != -1 && end != -1 && end > start {
		response = response[start : end+1]
	}
	return response
}

// unnamedMeal names an analysis that has calories but no dish or items.
const unnamedMeal = "Meal"

type rawAnalysis struct {
	IsFood *bool `json:"is_food"`
	MealAnalysis
}

// ParseMealAnalysis decodes and normalizes a model reply.
func ParseMealAnalysis(content string) (*MealAnalysis, error) {
	var raw rawAnalysis
	if err := json.Unmarshal([]byte(cleanLLMResponse(content)), &raw); err != nil {
		return nil, fmt.Errorf("%w: unreadable model reply: %v", ErrVisionUnavailable, err)
	}
	if raw.IsFood != nil && !*raw.IsFood {
		return nil, ErrNoFoodDetected
	}

	a := raw.MealAnalysis
	normalizeAnalysis(&a)
	if a.FoodName == "" && a.Calories == 0 {
		return nil, ErrNoFoodDetected
	}
	if a.FoodName == "" {
		a.FoodName = unnamedMeal
	}
	return &a, nil
}

func normalizeAnalysis(a *MealAnalysis) {
	a.FoodName = strings.TrimSpace(a.FoodName)
	a.Description = strings.TrimSpace(a.Description)

	items := a.Items[:0]
	for _, it := range a.Items {
		it.Name = strings.TrimSpace(it.Name)
		if it.Name == "" {
			continue
		}
		clampFood(&it.Calories, &it.Protein, &it.Carbs, &it.Fat, &it.Fiber, &it.Sugar, &it.Sodium)
		items = append(items, it)
	}
	a.Items = items

	clampFood(&a.Calories, &a.Protein, &a.Carbs, &a.Fat, &a.Fiber, &a.Sugar, &a.Sodium)
	if a.Calories == 0 && len(a.Items) > 0 {
		var t FoodItem
		for _, it := range a.Items {
			t.Calories += it.Calories
			t.Protein += it.Protein
			t.Carbs += it.Carbs
			t.Fat += it.Fat
			t.Fiber += it.Fiber
			t.Sugar += it.Sugar
			t.Sodium += it.Sodium
		}
		a.Calories, a.Protein, a.Carbs, a.Fat = t.Calories, t.Protein, t.Carbs, t.Fat
		a.Fiber, a.Sugar, a.Sodium = t.Fiber, t.Sugar, t.Sodium
	}
	clampFood(&a.Calories, &a.Protein, &a.Carbs, &a.Fat, &a.Fiber, &a.Sugar, &a.Sodium)

	if a.FoodName == "" && len(a.Items) > 0 {
		names := make([]string, 0, len(a.Items))
		for _, it := range a.Items {
			names = append(names, it.Name)
		}
		a.FoodName = strings.Join(names, ", ")
	}

	switch c := strings.ToLower(strings.TrimSpace(a.Confidence)); c {
	case "high", "medium", "low":
		a.Confidence = c
	default:
		a.Confidence = "low"
	}
}

// clampFood zeroes negative or NaN values and rounds to two decimals.
func clampFood(vals ...*float64) {
	for _, v := range vals {
		if *v < 0 || math.IsNaN(*v) || math.IsInf(*v, 0) {
			*v = 0
		}
		*v = nutrition.Round2(*v)
	}
}
