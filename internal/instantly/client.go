// Package instantly is a client for the Instantly.ai v1 API, the sending
// provider that executes admitted lead batches.
package instantly

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/geospark/outreach-scheduler/internal/config"
	"github.com/geospark/outreach-scheduler/internal/pkg/httpretry"
)

// Client is an Instantly.ai API client
type Client struct {
	baseURL    string
	apiKey     string
	httpClient httpretry.HTTPDoer
}

// NewClient creates a new Instantly API client
func NewClient(cfg config.InstantlyConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: cfg.Timeout(),
		}, 3),
	}
}

// doRequest makes a POST request to the Instantly API. The v1 API takes
// every call as a POST with the api_key inside the JSON body, so the key
// is merged into the given payload before encoding.
func (c *Client) doRequest(ctx context.Context, path string, payload map[string]any) ([]byte, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	payload["api_key"] = c.apiKey

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

// AddLeads pushes a batch of leads into a campaign. The API responds
// with how many were uploaded and how many were skipped as duplicates.
func (c *Client) AddLeads(ctx context.Context, campaignID string, leads []Lead, opts AddLeadsOptions) (*AddLeadsResult, error) {
	body, err := c.doRequest(ctx, "/lead/add", map[string]any{
		"campaign_id":          campaignID,
		"leads":                leads,
		"skip_if_in_workspace": opts.SkipIfInWorkspace,
		"skip_if_in_campaign":  opts.SkipIfInCampaign,
	})
	if err != nil {
		return nil, fmt.Errorf("adding leads: %w", err)
	}

	var result AddLeadsResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parsing add leads response: %w", err)
	}

	return &result, nil
}

// ListCampaigns fetches all campaigns in the workspace
func (c *Client) ListCampaigns(ctx context.Context) ([]Campaign, error) {
	body, err := c.doRequest(ctx, "/campaign/list", nil)
	if err != nil {
		return nil, fmt.Errorf("listing campaigns: %w", err)
	}

	var campaigns []Campaign
	if err := json.Unmarshal(body, &campaigns); err != nil {
		return nil, fmt.Errorf("parsing campaign list: %w", err)
	}

	return campaigns, nil
}

// GetCampaign fetches a single campaign by ID
func (c *Client) GetCampaign(ctx context.Context, campaignID string) (*Campaign, error) {
	body, err := c.doRequest(ctx, "/campaign/get", map[string]any{
		"campaign_id": campaignID,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching campaign: %w", err)
	}

	var campaign Campaign
	if err := json.Unmarshal(body, &campaign); err != nil {
		return nil, fmt.Errorf("parsing campaign: %w", err)
	}

	return &campaign, nil
}

// GetCampaignStats fetches the analytics summary for a campaign
func (c *Client) GetCampaignStats(ctx context.Context, campaignID string) (*CampaignStats, error) {
	body, err := c.doRequest(ctx, "/analytics/campaign/summary", map[string]any{
		"campaign_id": campaignID,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching campaign stats: %w", err)
	}

	var stats CampaignStats
	if err := json.Unmarshal(body, &stats); err != nil {
		return nil, fmt.Errorf("parsing campaign stats: %w", err)
	}

	return &stats, nil
}

// LaunchCampaign activates a campaign so queued leads start sending
func (c *Client) LaunchCampaign(ctx context.Context, campaignID string) error {
	if _, err := c.doRequest(ctx, "/campaign/launch", map[string]any{
		"campaign_id": campaignID,
	}); err != nil {
		return fmt.Errorf("launching campaign: %w", err)
	}
	return nil
}

// PauseCampaign pauses an active campaign
func (c *Client) PauseCampaign(ctx context.Context, campaignID string) error {
	if _, err := c.doRequest(ctx, "/campaign/pause", map[string]any{
		"campaign_id": campaignID,
	}); err != nil {
		return fmt.Errorf("pausing campaign: %w", err)
	}
	return nil
}
