package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
)

// StartWebhookSubscription forwards every lifecycle event to the
// configured webhook URL until the context is canceled.
func (svc *KassohubService) StartWebhookSubscription(ctx context.Context, url string) {
	svc.Logger.Infof("Starting webhook subscription with webhook url %s", url)
	subId, events := svc.EventPubSub.Subscribe(TopicAll)
	defer svc.EventPubSub.Unsubscribe(subId, TopicAll)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			svc.postToWebhook(url, event)
		}
	}
}

func (svc *KassohubService) postToWebhook(url string, event Event) {
	payload := new(bytes.Buffer)
	if err := json.NewEncoder(payload).Encode(event); err != nil {
		svc.Logger.Error(err)
		return
	}

	resp, err := http.Post(url, "application/json", payload)
	if err != nil {
		svc.Logger.Error(err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, err := io.ReadAll(resp.Body)
		if err != nil {
			svc.Logger.Error(err)
		}
		svc.Logger.Errorf("Webhook status code was %d, body: %s", resp.StatusCode, msg)
	}
}
