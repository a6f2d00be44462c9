// Package notify sends desktop notifications over the freedesktop D-Bus
// interface.
package notify

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	notificationsService = "org.freedesktop.Notifications"
	notificationsPath    = "/org/freedesktop/Notifications"
	notifyMethod         = notificationsService + ".Notify"

	appName       = "gcalagenda"
	expireDefault = int32(-1)
)

type Notifier interface {
	Notify(ctx context.Context, summary, body string) error
	Close() error
}

// Desktop posts notifications to the session bus.
type Desktop struct {
	conn *dbus.Conn
}

func NewDesktop(ctx context.Context) (*Desktop, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	return &Desktop{conn: conn}, nil
}

func (d *Desktop) Notify(ctx context.Context, summary, body string) error {
	obj := d.conn.Object(notificationsService, dbus.ObjectPath(notificationsPath))
	call := obj.CallWithContext(ctx, notifyMethod, 0,
		appName,
		uint32(0),
		"",
		summary,
		body,
		[]string{},
		map[string]dbus.Variant{},
		expireDefault,
	)
	if call.Err != nil {
		return fmt.Errorf("send notification: %w", call.Err)
	}
	return nil
}

func (d *Desktop) Close() error {
	if d == nil || d.conn == nil {
		return nil
	}
	return d.conn.Close()
}

// Discard drops every notification. Used when notifications are disabled or
// no session bus is reachable.
type Discard struct{}

func (Discard) Notify(context.Context, string, string) error { return nil }

func (Discard) Close() error { return nil }
