package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	pkgError "github.com/AzielCF/az-estate/pkg/error"
	"github.com/sirupsen/logrus"
)

type liveDispatcher struct {
	opts     Options
	endpoint string
	client   *http.Client
}

func newLiveDispatcher(opts Options) *liveDispatcher {
	cfg := opts.Live
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	opts.Live = cfg

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &liveDispatcher{
		opts:     opts,
		endpoint: fmt.Sprintf("%s/%s/%s/messages", strings.TrimRight(cfg.BaseURL, "/"), cfg.APIVersion, cfg.PhoneNumberID),
		client:   client,
	}
}

func (d *liveDispatcher) Mode() Mode {
	return ModeLive
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

type providerError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func (d *liveDispatcher) Send(ctx context.Context, msg Outbound) (SendResult, error) {
	started := time.Now()
	result, err := d.send(ctx, msg)
	record(d.opts, ModeLive, msg, result, err, started)

	if err != nil {
		logrus.WithError(err).Errorf("[DISPATCHER] %s to %s failed", msg.Type(), msg.Recipient())
		return result, err
	}

	logrus.Debugf("[DISPATCHER] %s to %s accepted as %s", msg.Type(), msg.Recipient(), result.ProviderMessageID)
	if d.opts.Logger != nil {
		entry := LogEntry{
			Recipient:         msg.Recipient(),
			Type:              msg.Type(),
			Content:           msg.Preview(),
			ProviderMessageID: result.ProviderMessageID,
		}
		go safely("log outbound", func() {
			logCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := d.opts.Logger.LogOutbound(logCtx, entry); err != nil {
				logrus.WithError(err).Warnf("[DISPATCHER] failed to log outbound message %s", entry.ProviderMessageID)
			}
		})
	}
	return result, nil
}

func (d *liveDispatcher) send(ctx context.Context, msg Outbound) (SendResult, error) {
	payload, err := BuildPayload(msg)
	if err != nil {
		return SendResult{}, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return SendResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(body))
	if err != nil {
		return SendResult{}, &pkgError.ChannelError{Kind: pkgError.ChannelUnknown, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.opts.Live.AccessToken)

	resp, err := d.client.Do(req)
	if err != nil {
		return SendResult{}, &pkgError.ChannelError{Kind: pkgError.ChannelNetworkError, Retryable: true, Err: err}
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if resp.StatusCode >= 300 {
		return SendResult{}, classify(resp, data)
	}

	var parsed sendResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return SendResult{}, &pkgError.ChannelError{Kind: pkgError.ChannelUnknown, Status: resp.StatusCode, Message: "unreadable provider response", Err: err}
	}
	if len(parsed.Messages) == 0 || parsed.Messages[0].ID == "" {
		return SendResult{}, &pkgError.ChannelError{Kind: pkgError.ChannelUnknown, Status: resp.StatusCode, Message: "provider response carries no message id"}
	}
	return SendResult{Accepted: true, ProviderMessageID: parsed.Messages[0].ID}, nil
}

// Provider error codes that change the classification regardless of status.
const (
	codeAuthExpired        = 190
	codeRateLimit          = 4
	codeSpamRateLimit      = 80007
	codeCloudRateLimit     = 130429
	codeInvalidParam       = 100
	codeUndeliverable      = 131026
	codeRecipientNotListed = 131030
)

func classify(resp *http.Response, data []byte) *pkgError.ChannelError {
	var perr providerError
	_ = json.Unmarshal(data, &perr)

	chErr := &pkgError.ChannelError{
		Kind:    pkgError.ChannelUnknown,
		Status:  resp.StatusCode,
		Code:    perr.Error.Code,
		Message: perr.Error.Message,
	}
	if chErr.Message == "" {
		chErr.Message = strings.TrimSpace(string(data))
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests,
		chErr.Code == codeCloudRateLimit, chErr.Code == codeSpamRateLimit, chErr.Code == codeRateLimit:
		chErr.Kind = pkgError.ChannelRateLimited
		chErr.Retryable = true
		chErr.RetryAfter = retryAfter(resp.Header.Get("Retry-After"))
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden,
		chErr.Code == codeAuthExpired:
		chErr.Kind = pkgError.ChannelAuthError
	case chErr.Code == codeUndeliverable, chErr.Code == codeRecipientNotListed,
		resp.StatusCode == http.StatusBadRequest && chErr.Code == codeInvalidParam:
		chErr.Kind = pkgError.ChannelInvalidRecipient
	case resp.StatusCode >= 500:
		chErr.Kind = pkgError.ChannelUnavailable
		chErr.Retryable = true
	}
	return chErr
}

func retryAfter(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(header); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

// safely runs fn and swallows any panic so side effects never break a send.
func safely(what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("[DISPATCHER] panic during %s: %v", what, r)
		}
	}()
	fn()
}

// IsRetryable reports whether a Send error is worth retrying later.
func IsRetryable(err error) bool {
	var chErr *pkgError.ChannelError
	return errors.As(err, &chErr) && chErr.Retryable
}
