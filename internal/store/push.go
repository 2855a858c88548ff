package store

import (
	"context"
	"errors"

	"saldo/internal/api"
)

// PushTokenRegistrar sends the device push token to the backend so it
// can target this device. The token comes from configuration; there is
// no platform notification runtime in this client.
type PushTokenRegistrar struct {
	api         *api.Client
	deviceToken string
}

func NewPushTokenRegistrar(client *api.Client, deviceToken string) *PushTokenRegistrar {
	return &PushTokenRegistrar{api: client, deviceToken: deviceToken}
}

func (r *PushTokenRegistrar) Register(ctx context.Context) error {
	if r.deviceToken == "" {
		return errors.New("no device push token configured")
	}
	payload := struct {
		PushToken string `json:"pushToken"`
	}{PushToken: r.deviceToken}
	return r.api.Put(ctx, api.PathUpdatePushToken, payload, nil)
}
