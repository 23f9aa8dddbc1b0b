package meeting

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"tutorbook/internal/pkg/config"
	"tutorbook/internal/pkg/errs"

	"github.com/google/uuid"
)

// Links is one provisioned video room. The host URL carries moderator
// privileges and is only ever shown to the teacher.
type Links struct {
	JoinURL string
	HostURL string
}

// Provider provisions a video room for a scheduled session.
type Provider interface {
	CreateRoom(ctx context.Context, sessionID uuid.UUID, scheduledAt time.Time, durationMin int) (Links, error)
}

type httpProvider struct {
	cfg    config.MeetingConfig
	client *http.Client
}

func NewHTTPProvider(cfg config.MeetingConfig) Provider {
	return &httpProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type createRoomRequest struct {
	ExternalID  string    `json:"external_id"`
	StartsAt    time.Time `json:"starts_at"`
	DurationMin int       `json:"duration_min"`
}

type createRoomResponse struct {
	JoinURL string `json:"join_url"`
	HostURL string `json:"host_url"`
}

func (p *httpProvider) CreateRoom(ctx context.Context, sessionID uuid.UUID, scheduledAt time.Time, durationMin int) (Links, error) {
	data, err := json.Marshal(createRoomRequest{
		ExternalID:  sessionID.String(),
		StartsAt:    scheduledAt,
		DurationMin: durationMin,
	})
	if err != nil {
		return Links{}, errs.Wrap(err, "failed to encode room request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/rooms", bytes.NewReader(data))
	if err != nil {
		return Links{}, errs.Wrap(err, "failed to build room request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return Links{}, errs.Wrap(err, "room provisioning request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Links{}, errs.Wrap(err, "failed to read room response")
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return Links{}, errs.Newf("room provider returned status %d", resp.StatusCode)
	}

	var rr createRoomResponse
	if err := json.Unmarshal(raw, &rr); err != nil {
		return Links{}, errs.Wrap(err, "failed to decode room response")
	}
	if rr.JoinURL == "" || rr.HostURL == "" {
		return Links{}, errs.New("room provider returned incomplete links")
	}
	return Links{JoinURL: rr.JoinURL, HostURL: rr.HostURL}, nil
}
