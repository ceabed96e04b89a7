// Package ses cross-checks pool capacity against the upstream AWS SES
// account quota. Accounts relayed through SES share one regional daily
// quota, so a pool that looks healthy locally can still be throttled
// upstream.
package ses

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/geospark/outreach-scheduler/internal/config"
)

// API is the slice of the SES v2 client the quota checker uses.
type API interface {
	GetAccount(ctx context.Context, params *sesv2.GetAccountInput, optFns ...func(*sesv2.Options)) (*sesv2.GetAccountOutput, error)
}

// Quota is the account-level send quota reported by SES.
type Quota struct {
	Max24HourSend   float64 `json:"max_24_hour_send"`
	SentLast24Hours float64 `json:"sent_last_24_hours"`
	MaxSendRate     float64 `json:"max_send_rate"`
	SendingEnabled  bool    `json:"sending_enabled"`
}

// Remaining returns how many sends the quota still allows in the current
// 24 hour window. A Max24HourSend of -1 means the account is unthrottled.
func (q Quota) Remaining() int {
	if q.Max24HourSend < 0 {
		return -1
	}
	r := int(q.Max24HourSend - q.SentLast24Hours)
	if r < 0 {
		return 0
	}
	return r
}

// QuotaChecker fetches the SES account quota.
type QuotaChecker struct {
	api    API
	region string
}

// NewQuotaChecker creates a checker with static credentials from config.
func NewQuotaChecker(ctx context.Context, cfg appconfig.SESConfig) (*QuotaChecker, error) {
	creds := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &QuotaChecker{
		api:    sesv2.NewFromConfig(awsCfg),
		region: cfg.Region,
	}, nil
}

// NewQuotaCheckerWithAPI wires an explicit API implementation, used in tests.
func NewQuotaCheckerWithAPI(api API, region string) *QuotaChecker {
	return &QuotaChecker{api: api, region: region}
}

// Check fetches the current account send quota.
func (c *QuotaChecker) Check(ctx context.Context) (*Quota, error) {
	out, err := c.api.GetAccount(ctx, &sesv2.GetAccountInput{})
	if err != nil {
		return nil, fmt.Errorf("fetching SES account quota: %w", err)
	}

	q := &Quota{SendingEnabled: out.SendingEnabled}
	if out.SendQuota != nil {
		q.Max24HourSend = out.SendQuota.Max24HourSend
		q.SentLast24Hours = out.SendQuota.SentLast24Hours
		q.MaxSendRate = out.SendQuota.MaxSendRate
	}
	return q, nil
}

// Warn compares the pool's remaining capacity against the upstream quota
// and returns an advisory string when the quota is the tighter bound.
func (c *QuotaChecker) Warn(ctx context.Context, poolRemaining int) (string, bool) {
	q, err := c.Check(ctx)
	if err != nil {
		// Quota lookup is advisory; never block capacity reads on it.
		return "", false
	}
	if !q.SendingEnabled {
		return fmt.Sprintf("Upstream SES sending is disabled in %s", c.region), true
	}
	remaining := q.Remaining()
	if remaining >= 0 && remaining < poolRemaining {
		return fmt.Sprintf("Upstream SES quota allows only %d more send(s) in the current 24h window", remaining), true
	}
	return "", false
}
