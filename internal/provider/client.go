package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Client talks to the generation provider over REST. It holds no credential;
// the caller's key is forwarded on every request.
type Client struct {
	BaseURL    string
	ChatModel  string
	TitleModel string
	ImageModel string
	HTTP       *http.Client
}

func NewClient(baseURL, chatModel, titleModel, imageModel string) *Client {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if chatModel == "" {
		chatModel = "gpt-5"
	}
	if titleModel == "" {
		titleModel = chatModel
	}
	if imageModel == "" {
		imageModel = "gpt-image-1"
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		ChatModel:  chatModel,
		TitleModel: titleModel,
		ImageModel: imageModel,
		HTTP:       &http.Client{Timeout: 90 * time.Second},
	}
}

type inputPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

type inputMsg struct {
	Role    string      `json:"role"`
	Content []inputPart `json:"content"`
}

type textReq struct {
	Model        string     `json:"model"`
	Instructions string     `json:"instructions,omitempty"`
	Input        []inputMsg `json:"input"`
}

type textResp struct {
	OutputText string `json:"output_text"`
	Error      *Error `json:"error,omitempty"`
}

func (c *Client) CreateTextReply(ctx context.Context, cred string, turns []Turn, guidance string, remix *RemixContext) (string, error) {
	instructions := guidance
	if remix != nil {
		var b strings.Builder
		b.WriteString(guidance)
		b.WriteString("\n\nThe user is remixing the video \"")
		b.WriteString(remix.VideoTitle)
		b.WriteString("\".")
		if remix.PreviousChat != "" {
			b.WriteString(" Conversation that produced it:\n")
			b.WriteString(remix.PreviousChat)
		}
		instructions = b.String()
	}

	input := make([]inputMsg, 0, len(turns))
	for _, t := range turns {
		role := "user"
		if t.Role == "assistant" {
			role = "assistant"
		}
		parts := []inputPart{{Type: "input_text", Text: t.Content}}
		if t.ImageURL != "" {
			if t.Content == "" {
				parts[0].Text = "What do you see in this image?"
			}
			parts = append(parts, inputPart{Type: "input_image", ImageURL: t.ImageURL})
		}
		input = append(input, inputMsg{Role: role, Content: parts})
	}

	var decoded textResp
	if err := c.postJSON(ctx, cred, "/responses", textReq{
		Model:        c.ChatModel,
		Instructions: instructions,
		Input:        input,
	}, &decoded); err != nil {
		return "", err
	}
	if decoded.Error != nil && decoded.Error.Message != "" {
		return "", decoded.Error
	}
	if decoded.OutputText == "" {
		return "", errors.New("provider: empty response")
	}
	return decoded.OutputText, nil
}

const titleInstructions = "Create a concise, cinematic video title (max 8 words) based on the provided description. " +
	"Respond with the title only and do not include quotation marks or additional commentary."

func (c *Client) CreateShortTitle(ctx context.Context, cred string, description string) (string, error) {
	var decoded textResp
	err := c.postJSON(ctx, cred, "/responses", textReq{
		Model:        c.TitleModel,
		Instructions: titleInstructions,
		Input: []inputMsg{{
			Role:    "user",
			Content: []inputPart{{Type: "input_text", Text: description}},
		}},
	}, &decoded)
	if err != nil {
		return "", err
	}
	if decoded.Error != nil && decoded.Error.Message != "" {
		return "", decoded.Error
	}
	// An empty title is not an error; callers substitute their fallback.
	title := strings.TrimSpace(decoded.OutputText)
	title = strings.Trim(title, `"'`)
	return title, nil
}

func (c *Client) GenerateImage(ctx context.Context, cred string, prompt string) (string, error) {
	req := map[string]string{
		"model":           c.ImageModel,
		"prompt":          prompt,
		"size":            "1024x1024",
		"response_format": "b64_json",
	}
	var decoded struct {
		Data []struct {
			B64JSON string `json:"b64_json"`
		} `json:"data"`
		Error *Error `json:"error,omitempty"`
	}
	if err := c.postJSON(ctx, cred, "/images/generations", req, &decoded); err != nil {
		return "", err
	}
	if decoded.Error != nil && decoded.Error.Message != "" {
		return "", decoded.Error
	}
	if len(decoded.Data) == 0 || decoded.Data[0].B64JSON == "" {
		return "", errors.New("provider: no image data returned")
	}
	return decoded.Data[0].B64JSON, nil
}

func (c *Client) CreateVideoJob(ctx context.Context, cred string, req CreateVideoRequest) (*VideoJob, error) {
	if len(req.ReferenceImage) == 0 {
		body := map[string]string{
			"model":   req.Model,
			"prompt":  req.Prompt,
			"size":    req.Size,
			"seconds": req.Seconds,
		}
		var job VideoJob
		if err := c.postJSON(ctx, cred, "/videos", body, &job); err != nil {
			return nil, err
		}
		return &job, nil
	}

	// Reference image rides along as a multipart file field.
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range map[string]string{
		"model":   req.Model,
		"prompt":  req.Prompt,
		"size":    req.Size,
		"seconds": req.Seconds,
	} {
		if err := w.WriteField(k, v); err != nil {
			return nil, err
		}
	}
	fw, err := w.CreateFormFile("input_reference", "input.png")
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(req.ReferenceImage); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/videos", &buf)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", w.FormDataContentType())
	httpReq.Header.Set("Authorization", "Bearer "+cred)

	var job VideoJob
	if err := c.do(httpReq, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (c *Client) CreateRemixJob(ctx context.Context, cred string, sourceJobID string, req RemixRequest) (*VideoJob, error) {
	body := map[string]string{"prompt": req.Prompt}
	if req.Model != "" {
		body["model"] = req.Model
	}
	if req.Size != "" {
		body["size"] = req.Size
	}
	if req.Seconds != "" {
		body["seconds"] = req.Seconds
	}
	var job VideoJob
	if err := c.postJSON(ctx, cred, "/videos/"+sourceJobID+"/remix", body, &job); err != nil {
		return nil, err
	}
	if job.RemixedFromID == "" {
		job.RemixedFromID = sourceJobID
	}
	return &job, nil
}

func (c *Client) GetVideoJob(ctx context.Context, cred string, jobID string) (*VideoJob, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/videos/"+jobID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+cred)

	var job VideoJob
	if err := c.do(req, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (c *Client) ListVideoJobs(ctx context.Context, cred string) ([]VideoJob, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/videos", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+cred)

	var decoded struct {
		Data []VideoJob `json:"data"`
	}
	if err := c.do(req, &decoded); err != nil {
		return nil, err
	}
	return decoded.Data, nil
}

func (c *Client) DownloadVideoArtifact(ctx context.Context, cred string, jobID string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/videos/"+jobID+"/content", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+cred)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		resp.Body.Close()
		return nil, decodeErrorBody(resp.StatusCode, body)
	}
	return resp.Body, nil
}

func (c *Client) postJSON(ctx context.Context, cred, path string, body any, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cred)
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.HTTP == nil {
		return errors.New("provider: http client is nil")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		return decodeErrorBody(resp.StatusCode, body)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("provider: decode response: %w", err)
	}
	return nil
}
