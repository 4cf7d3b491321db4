package legaldoc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is a thin HTTP client for the legaldoc REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Document mirrors the API's document version payload.
type Document struct {
	ID                string    `json:"id"`
	Type              string    `json:"type"`
	Title             string    `json:"title"`
	Content           string    `json:"content"`
	Version           int64     `json:"version"`
	EffectiveDate     string    `json:"effective_date"`
	Status            string    `json:"status"`
	PreviousVersionID *string   `json:"previous_version_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// HistoryPage is one page of a type's version history.
type HistoryPage struct {
	Versions []*Document `json:"versions"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

type documentBody struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	EffectiveDate string `json:"effective_date"`
}

func (c *Client) Create(ctx context.Context, typ, title, content, effectiveDate string) (*Document, error) {
	doc := &Document{}
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/v1/documents/%s", typ), &documentBody{
		Title:         title,
		Content:       content,
		EffectiveDate: effectiveDate,
	}, doc)
	return doc, err
}

func (c *Client) Revise(ctx context.Context, id, title, content, effectiveDate string) (*Document, error) {
	doc := &Document{}
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/v1/versions/%s/revise", id), &documentBody{
		Title:         title,
		Content:       content,
		EffectiveDate: effectiveDate,
	}, doc)
	return doc, err
}

func (c *Client) Activate(ctx context.Context, id string) (*Document, error) {
	doc := &Document{}
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/v1/versions/%s/activate", id), nil, doc)
	return doc, err
}

func (c *Client) SoftDelete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/v1/versions/%s", id), nil, nil)
}

func (c *Client) Get(ctx context.Context, id string) (*Document, error) {
	doc := &Document{}
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/versions/%s", id), nil, doc)
	return doc, err
}

func (c *Client) Current(ctx context.Context, typ string) (*Document, error) {
	doc := &Document{}
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/documents/%s/current", typ), nil, doc)
	return doc, err
}

func (c *Client) History(ctx context.Context, typ string, includeRemoved bool, page, pageSize int) (*HistoryPage, error) {
	path := fmt.Sprintf("/v1/documents/%s/history?page=%d&page_size=%d&include_removed=%t", typ, page, pageSize, includeRemoved)
	history := &HistoryPage{}
	err := c.do(ctx, http.MethodGet, path, nil, history)
	return history, err
}

func (c *Client) Chain(ctx context.Context, id string) ([]*Document, error) {
	var chain []*Document
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/versions/%s/chain", id), nil, &chain)
	return chain, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		apiErr := struct {
			Error string `json:"error"`
		}{}
		if err := json.NewDecoder(res.Body).Decode(&apiErr); err != nil || apiErr.Error == "" {
			return fmt.Errorf("request failed with status %d", res.StatusCode)
		}
		return fmt.Errorf("%s (status %d)", apiErr.Error, res.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}
