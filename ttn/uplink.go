package ttn

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dht22dec/decoder"
)

var (
	ErrNoUplink = errors.New("message carries no uplink_message")
)

type EndDeviceIDs struct {
	DeviceID       string `json:"device_id"`
	ApplicationIDs struct {
		ApplicationID string `json:"application_id"`
	} `json:"application_ids"`
	DevEUI  string `json:"dev_eui"`
	JoinEUI string `json:"join_eui"`
	DevAddr string `json:"dev_addr"`
}

type GatewayIDs struct {
	GatewayID string `json:"gateway_id"`
	EUI       string `json:"eui"`
}

// RxMetadata is reported once per receiving gateway.
type RxMetadata struct {
	GatewayIDs  GatewayIDs `json:"gateway_ids"`
	RSSI        *float64   `json:"rssi"`
	ChannelRSSI *float64   `json:"channel_rssi"`
	SNR         *float64   `json:"snr"`
}

type UplinkMessage struct {
	FPort      int          `json:"f_port"`
	FCnt       uint32       `json:"f_cnt"`
	FRMPayload []byte       `json:"frm_payload"`
	RxMetadata []RxMetadata `json:"rx_metadata"`
	ReceivedAt time.Time    `json:"received_at"`
}

// Uplink is the JSON published by The Things Stack on
// v3/{application id}@{tenant}/devices/{device id}/up
type Uplink struct {
	EndDeviceIDs  EndDeviceIDs   `json:"end_device_ids"`
	ReceivedAt    time.Time      `json:"received_at"`
	UplinkMessage *UplinkMessage `json:"uplink_message"`
}

func ParseUplink(payload []byte) (*Uplink, error) {
	var up Uplink
	if err := json.Unmarshal(payload, &up); err != nil {
		return nil, fmt.Errorf("invalid uplink json: %w", err)
	}
	if up.UplinkMessage == nil {
		return nil, ErrNoUplink
	}
	return &up, nil
}

// Metadata returns the radio metadata of the gateway that heard the uplink
// best. Gateways without an RSSI are only used when none has one.
func (u *Uplink) Metadata() *decoder.Metadata {
	if u.UplinkMessage == nil || len(u.UplinkMessage.RxMetadata) == 0 {
		return nil
	}

	var best *RxMetadata
	var bestRSSI *float64
	for i := range u.UplinkMessage.RxMetadata {
		rx := &u.UplinkMessage.RxMetadata[i]
		rssi := rx.rssi()
		if best == nil || (rssi != nil && (bestRSSI == nil || *rssi > *bestRSSI)) {
			best, bestRSSI = rx, rssi
		}
	}
	return &decoder.Metadata{RSSI: bestRSSI, SNR: best.SNR}
}

// Device prefers the device id and falls back to the DevEUI.
func (u *Uplink) Device() string {
	if u.EndDeviceIDs.DeviceID != "" {
		return u.EndDeviceIDs.DeviceID
	}
	return u.EndDeviceIDs.DevEUI
}

func (rx *RxMetadata) rssi() *float64 {
	if rx.RSSI != nil {
		return rx.RSSI
	}
	return rx.ChannelRSSI
}
