package tmdb

import (
	"context"
	"fmt"

	"github.com/patrickmn/go-cache"
)

const (
	cacheKeyAccount = "account_id"
	cacheKeyImages  = "configuration.images"
)

// imageConfig is the part of /configuration needed to build poster URLs
type imageConfig struct {
	BaseURL       string   `json:"base_url"`
	SecureBaseURL string   `json:"secure_base_url"`
	PosterSizes   []string `json:"poster_sizes"`
}

func (ic *imageConfig) base() string {
	if ic.SecureBaseURL != "" {
		return ic.SecureBaseURL
	}
	return ic.BaseURL
}

// AccountID returns the configured account id, or looks it up from the session
func (c *Client) AccountID(ctx context.Context) (int64, error) {
	if c.accountID > 0 {
		return c.accountID, nil
	}
	if cached, ok := c.cache.Get(cacheKeyAccount); ok {
		return cached.(int64), nil
	}

	var account struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
	}
	if err := c.get(ctx, "/account", nil, &account); err != nil {
		return 0, fmt.Errorf("failed to get account: %w", err)
	}
	if account.ID <= 0 {
		return 0, fmt.Errorf("tmdb returned no account for this session")
	}

	c.logger.WithField("username", account.Username).Debug("Resolved TMDB account")
	c.cache.Set(cacheKeyAccount, account.ID, cache.DefaultExpiration)
	return account.ID, nil
}

// images fetches the image configuration, cached for a day
func (c *Client) images(ctx context.Context) (*imageConfig, error) {
	if cached, ok := c.cache.Get(cacheKeyImages); ok {
		return cached.(*imageConfig), nil
	}

	var configuration struct {
		Images imageConfig `json:"images"`
	}
	if err := c.get(ctx, "/configuration", nil, &configuration); err != nil {
		return nil, fmt.Errorf("failed to get configuration: %w", err)
	}

	images := &configuration.Images
	c.cache.Set(cacheKeyImages, images, cache.DefaultExpiration)
	return images, nil
}
