package opentdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"trivia-frenzy/internal/domain"
)

const (
	DefaultBaseURL = "https://opentdb.com"
	defaultAmount  = 10
)

type questionsResponse struct {
	ResponseCode int                     `json:"response_code"`
	Results      []domain.QuestionRecord `json:"results"`
}

type categoriesResponse struct {
	TriviaCategories []domain.Category `json:"trivia_categories"`
}

// Client talks to the Open Trivia DB HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// QuestionsURL builds the api.php query for settings. Category "any" adds no category filter.
func (c *Client) QuestionsURL(settings domain.Settings) string {
	amount := settings.QuestionCount
	if amount <= 0 {
		amount = defaultAmount
	}

	q := url.Values{}
	q.Set("amount", strconv.Itoa(amount))
	if settings.Category != "" && settings.Category != domain.AnyCategory {
		q.Set("category", settings.Category)
	}
	if settings.Difficulty != "" {
		q.Set("difficulty", settings.Difficulty)
	}
	answerType := settings.AnswerType
	if answerType == "" {
		answerType = domain.AnswerTypeMultiple
	}
	q.Set("type", answerType)

	return c.baseURL + "/api.php?" + q.Encode()
}

// FetchQuestions returns the raw records for settings or an error describing why none are available.
func (c *Client) FetchQuestions(ctx context.Context, settings domain.Settings) ([]domain.QuestionRecord, error) {
	var payload questionsResponse
	if err := c.getJSON(ctx, c.QuestionsURL(settings), &payload); err != nil {
		return nil, err
	}

	if payload.ResponseCode != 0 {
		return nil, fmt.Errorf("opentdb response_code=%d", payload.ResponseCode)
	}

	return payload.Results, nil
}

// FetchCategories returns the trivia category catalog.
func (c *Client) FetchCategories(ctx context.Context) ([]domain.Category, error) {
	var payload categoriesResponse
	if err := c.getJSON(ctx, c.baseURL+"/api_category.php", &payload); err != nil {
		return nil, err
	}
	return payload.TriviaCategories, nil
}

func (c *Client) getJSON(ctx context.Context, reqURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("opentdb returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode opentdb response: %w", err)
	}
	return nil
}
