// Package gemini implements ocr.Engine against the Gemini multimodal API, for
// deployments that prefer a cloud vision model over a local Tesseract binary.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/stampwise/stampwise/ocr"
)

// Engine calls the Gemini API to recognize text in an image region.
type Engine struct {
	APIKey string
	Model  string
}

// New constructs a Gemini OCR engine. Model is a Gemini model name, e.g.
// "gemini-1.5-flash".
func New(apiKey, model string) *Engine {
	return &Engine{
		APIKey: strings.TrimSpace(apiKey),
		Model:  strings.TrimSpace(model),
	}
}

func (e *Engine) Name() string { return "gemini" }

type ocrResponse struct {
	Text  string `json:"text"`
	Words []struct {
		Text string  `json:"text"`
		X    float64 `json:"x"`
		Y    float64 `json:"y"`
		W    float64 `json:"w"`
		H    float64 `json:"h"`
	} `json:"words"`
}

// Recognize sends the input image to Gemini with an OCR extraction prompt and
// parses the JSON response into an ocr.Result.
func (e *Engine) Recognize(ctx context.Context, in ocr.Input) (ocr.Result, error) {
	if e.APIKey == "" {
		return ocr.Result{}, errors.New("gemini: API key is empty")
	}
	if len(in.Image) == 0 {
		return ocr.Result{}, errors.New("gemini: input has no image data")
	}

	cl, err := genai.NewClient(ctx, option.WithAPIKey(e.APIKey))
	if err != nil {
		return ocr.Result{}, fmt.Errorf("gemini: new client: %w", err)
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.Model)
	if m == nil {
		return ocr.Result{}, fmt.Errorf("gemini: model %q is nil", e.Model)
	}
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		ResponseMIMEType: "application/json",
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{
			genai.Text(`Extract every legible word from the attached image.
Return ONLY JSON matching {"text": string, "words": [{"text": string, "x": number, "y": number, "w": number, "h": number}]}.
"text" is the words joined in reading order separated by single spaces.
Word coordinates are pixel offsets within the image, origin at the top-left.
Any text outside the JSON object is an error.`),
		},
	}

	parts := []genai.Part{
		genai.Text(languageHint(in.Languages)),
		&genai.Blob{MIMEType: string(in.Format), Data: in.Image},
	}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		select {
		case <-ctx.Done():
			return ocr.Result{}, ctx.Err()
		default:
		}
		resp, err := m.GenerateContent(ctx, parts...)
		if err != nil {
			lastErr = err
			time.Sleep(time.Duration(attempt) * 300 * time.Millisecond)
			continue
		}
		txt := firstText(resp)
		if txt == "" {
			return ocr.Result{}, fmt.Errorf("gemini: empty response for %s", in.ID)
		}
		var parsed ocrResponse
		if err := json.Unmarshal([]byte(stripCodeFences(txt)), &parsed); err != nil {
			return ocr.Result{}, fmt.Errorf("gemini: parse response: %w", err)
		}
		return toResult(in, parsed), nil
	}
	return ocr.Result{}, fmt.Errorf("gemini: exhausted retries: %w", lastErr)
}

func toResult(in ocr.Input, parsed ocrResponse) ocr.Result {
	words := make([]ocr.TextWord, 0, len(parsed.Words))
	for _, w := range parsed.Words {
		words = append(words, ocr.TextWord{
			Text:   w.Text,
			Bounds: ocr.Region{X: w.X, Y: w.Y, Width: w.W, Height: w.H},
		})
	}
	var blocks []ocr.TextBlock
	if strings.TrimSpace(parsed.Text) != "" || len(words) > 0 {
		blocks = []ocr.TextBlock{{
			Text:  parsed.Text,
			Lines: []ocr.TextLine{{Text: parsed.Text, Words: words}},
		}}
	}
	return ocr.Result{
		InputID:   in.ID,
		PlainText: strings.TrimSpace(parsed.Text),
		Blocks:    blocks,
		Language:  firstLanguage(in.Languages),
	}
}

func languageHint(langs []string) string {
	if len(langs) == 0 {
		return "Return the JSON described above for this image."
	}
	return fmt.Sprintf("Return the JSON described above for this image. Expected languages: %s.", strings.Join(langs, ", "))
}

func firstLanguage(langs []string) string {
	if len(langs) == 0 {
		return ""
	}
	return langs[0]
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func ptrFloat32(v float32) *float32 { return &v }
