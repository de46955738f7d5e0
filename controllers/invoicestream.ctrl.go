package controllers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/kassolightning/kassohub/common"
	"github.com/kassolightning/kassohub/lib/service"
)

// InvoiceStreamController : Live-update channel controller struct
type InvoiceStreamController struct {
	svc *service.KassohubService
}

func NewInvoiceStreamController(svc *service.KassohubService) *InvoiceStreamController {
	return &InvoiceStreamController{svc: svc}
}

// StreamEvents pushes lifecycle events to the client over a websocket.
// Delivery is best-effort; the dashboard is expected to also poll.
func (controller *InvoiceStreamController) StreamEvents(c echo.Context) error {
	subId, events := controller.svc.EventPubSub.Subscribe(service.TopicAll)

	upgrader := websocket.Upgrader{}
	upgrader.CheckOrigin = func(r *http.Request) bool { return true }
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		controller.svc.EventPubSub.Unsubscribe(subId, service.TopicAll)
		return err
	}
	defer ws.Close()

	// start listening for close messages
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	err = ws.WriteJSON(&service.Event{Type: common.EventTypeConnectionSuccess})
	if err != nil {
		controller.svc.Logger.Error(err)
		controller.svc.EventPubSub.Unsubscribe(subId, service.TopicAll)
		return err
	}
SocketLoop:
	for {
		select {
		case <-done:
			break SocketLoop
		case <-ticker.C:
			if err := ws.WriteJSON(&service.Event{Type: "keepalive"}); err != nil {
				controller.svc.Logger.Error(err)
				break SocketLoop
			}
		case event, ok := <-events:
			if !ok {
				// evicted as a slow consumer
				break SocketLoop
			}
			if err := ws.WriteJSON(&event); err != nil {
				controller.svc.Logger.Error(err)
				break SocketLoop
			}
		}
	}
	controller.svc.EventPubSub.Unsubscribe(subId, service.TopicAll)
	return nil
}
