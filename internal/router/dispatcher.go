package router

import (
	"context"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kissangram/engagement/internal/events"
	"github.com/kissangram/engagement/internal/handlers"
)

// handlerFunc is the shape shared by every event handler operation.
type handlerFunc func(ctx context.Context, event *events.Event) error

// triggerRoute binds one (event type, document path pattern) pair to
// its handler.
type triggerRoute struct {
	eventType string
	pattern   string
	handle    handlerFunc
}

// dispatcher receives Firestore trigger deliveries and routes each to
// the handler registered for its event type and document path.
type dispatcher struct {
	routes []triggerRoute
}

func newDispatcher(fanout *handlers.FanoutHandler, likes *handlers.LikeHandler, comments *handlers.CommentHandler) *dispatcher {
	return &dispatcher{routes: []triggerRoute{
		{events.TypeDocumentCreate, "posts/{postId}", fanout.HandlePostCreated},
		{events.TypeDocumentCreate, "posts/{postId}/likes/{userId}", likes.HandleLikeCreated},
		{events.TypeDocumentDelete, "posts/{postId}/likes/{userId}", likes.HandleLikeDeleted},
		{events.TypeDocumentCreate, "posts/{postId}/comments/{commentId}", comments.HandleCommentCreated},
		{events.TypeDocumentUpdate, "posts/{postId}/comments/{commentId}", comments.HandleCommentUpdated},
		{events.TypeDocumentDelete, "posts/{postId}/comments/{commentId}", comments.HandleCommentDeleted},
	}}
}

// HandleDelivery decodes one trigger delivery and runs the matching
// handler. A handler error answers 500, which is the delivery
// service's signal to retry the event; everything else acknowledges
// with 200 so the event is not redelivered.
func (d *dispatcher) HandleDelivery(c echo.Context) error {
	var payload events.TriggerPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid trigger payload")
	}
	event, err := events.FromPayload(&payload)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	for _, route := range d.routes {
		if route.eventType != event.Type {
			continue
		}
		params, ok := events.MatchPattern(route.pattern, event.Path)
		if !ok {
			continue
		}
		event.Params = params
		if err := route.handle(c.Request().Context(), event); err != nil {
			log.Printf("dispatch: event %s (%s %s) failed: %v", event.ID, event.Type, event.Path, err)
			return echo.NewHTTPError(http.StatusInternalServerError, "Handler failed, delivery should be retried")
		}
		return c.NoContent(http.StatusOK)
	}

	// Unmatched events are acknowledged: redelivering them could never
	// make them routable.
	log.Printf("dispatch: no handler for event %s (%s %s)", event.ID, event.Type, event.Path)
	return c.NoContent(http.StatusOK)
}
