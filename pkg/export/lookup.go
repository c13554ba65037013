package export

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"snapex/pkg/model/msnapshot"
)

const snapshotListLimit = 20

// Snapshots lists the company's own snapshots, newest page only.
func (e *Exporter) Snapshots(ctx context.Context, companyID string) ([]msnapshot.ListEntry, error) {
	if companyID == "" {
		return nil, fmt.Errorf("company id is required")
	}
	path := fmt.Sprintf("/snapshots/v2/%s?companyId=%s&skip=0&limit=%d&type=own", companyID, companyID, snapshotListLimit)
	body, err := e.client.Get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshots list: %w", err)
	}
	return msnapshot.DecodeList(body)
}

// CompanyIDFromUser resolves the company id from a user record.
func (e *Exporter) CompanyIDFromUser(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("user id is required")
	}
	body, err := e.client.Get(ctx, fmt.Sprintf("/users/%s", userID))
	if err != nil {
		return "", fmt.Errorf("fetch user: %w", err)
	}
	var user struct {
		CompanyID string `json:"companyId"`
	}
	if err := json.Unmarshal(body, &user); err != nil {
		return "", fmt.Errorf("decode user: %w", err)
	}
	if user.CompanyID == "" {
		return "", fmt.Errorf("user %s has no company id", userID)
	}
	return user.CompanyID, nil
}
