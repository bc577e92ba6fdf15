package broker

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/nvhoang/shopfeed/internal/model"
)

// globalDestination is the broadcast channel shared by all clients.
const globalDestination = "/topic/global-notifications"

// personalDestination is the private channel for one user's notifications.
func personalDestination(userID string) string {
	return "/user/" + userID + "/notification"
}

// declareSubscriptions binds both logical channels to the given
// connection and starts a reader loop per channel. onClosed fires
// exactly once, from whichever channel notices the transport die first.
func declareSubscriptions(
	conn Conn,
	userID string,
	sink LiveSink,
	log *zap.Logger,
	onClosed func(),
) ([]Subscription, error) {
	var once sync.Once
	closed := func() { once.Do(onClosed) }

	personal, err := conn.Subscribe(personalDestination(userID))
	if err != nil {
		return nil, err
	}
	global, err := conn.Subscribe(globalDestination)
	if err != nil {
		_ = personal.Unsubscribe()
		return nil, err
	}

	go readLoop(personal, model.ScopePersonal, sink, log, closed)
	go readLoop(global, model.ScopeGlobal, sink, log, closed)

	return []Subscription{personal, global}, nil
}

// readLoop pumps frames from one subscription into the sink until the
// transport dies. A malformed frame is dropped and logged; it never
// aborts the loop.
func readLoop(
	sub Subscription,
	scope model.Scope,
	sink LiveSink,
	log *zap.Logger,
	closed func(),
) {
	for msg := range sub.C() {
		if msg.Err != nil {
			log.Warn("broker channel error",
				zap.String("scope", string(scope)),
				zap.Error(msg.Err),
			)
			closed()
			return
		}

		var n model.Notification
		if err := json.Unmarshal(msg.Body, &n); err != nil {
			log.Warn("dropping malformed frame",
				zap.String("scope", string(scope)),
				zap.Error(err),
			)
			continue
		}

		n.Scope = scope
		sink.IngestLive(context.Background(), n)
	}
	closed()
}
