package phy

import (
	"encoding/json"
	"fmt"
	"time"

	"dht22dec/decoder"

	"github.com/brocaar/lorawan"
)

type RxInfo struct {
	RSSI    *float64   `json:"rssi"`
	LoRaSNR *float64   `json:"loRaSNR"`
	Time    *time.Time `json:"time"`
}

// Uplink is the gateway bridge JSON event carrying a raw PHYPayload.
type Uplink struct {
	PHYPayload []byte `json:"phyPayload"`
	RxInfo     RxInfo `json:"rxInfo"`
}

// Frame is a verified and decrypted application payload.
type Frame struct {
	DevAddr    lorawan.DevAddr
	FCnt       uint32
	FPort      uint8
	FRMPayload []byte
}

func ParseUplink(payload []byte) (*Uplink, error) {
	var up Uplink
	if err := json.Unmarshal(payload, &up); err != nil {
		return nil, fmt.Errorf("invalid gateway event json: %w", err)
	}
	return &up, nil
}

func (u *Uplink) Metadata() *decoder.Metadata {
	return &decoder.Metadata{RSSI: u.RxInfo.RSSI, SNR: u.RxInfo.LoRaSNR}
}

// ReceivedAt returns the gateway receive time, or now when the gateway
// did not report one.
func (u *Uplink) ReceivedAt(now time.Time) time.Time {
	if u.RxInfo.Time != nil && !u.RxInfo.Time.IsZero() {
		return *u.RxInfo.Time
	}
	return now
}

// Decrypt checks the LoRaWAN 1.0 MIC of an uplink data frame and returns
// its decrypted FRMPayload.
func (k *Keyring) Decrypt(b []byte) (*Frame, error) {
	var phy lorawan.PHYPayload
	if err := phy.UnmarshalBinary(b); err != nil {
		return nil, fmt.Errorf("failed to unmarshal PHYPayload: %w", err)
	}

	if phy.MHDR.MType != lorawan.UnconfirmedDataUp && phy.MHDR.MType != lorawan.ConfirmedDataUp {
		return nil, fmt.Errorf("%w: %s", ErrNotDataUp, phy.MHDR.MType)
	}

	macPL, ok := phy.MACPayload.(*lorawan.MACPayload)
	if !ok {
		return nil, ErrNotDataUp
	}

	sess, ok := k.lookup(macPL.FHDR.DevAddr)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDevice, macPL.FHDR.DevAddr)
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	macPL.FHDR.FCnt = sess.fullFCnt(macPL.FHDR.FCnt)

	valid, err := phy.ValidateUplinkDataMIC(lorawan.LoRaWAN1_0, 0, 0, 0, sess.NwkSKey, sess.NwkSKey)
	if err != nil {
		return nil, fmt.Errorf("failed to validate MIC: %w", err)
	}
	if !valid {
		return nil, fmt.Errorf("%w: %s fcnt %d", ErrInvalidMIC, macPL.FHDR.DevAddr, macPL.FHDR.FCnt)
	}
	if sess.seen && macPL.FHDR.FCnt <= sess.fCntUp {
		return nil, fmt.Errorf("%w: %s fcnt %d", ErrDuplicateFCnt, macPL.FHDR.DevAddr, macPL.FHDR.FCnt)
	}

	frame := &Frame{DevAddr: macPL.FHDR.DevAddr, FCnt: macPL.FHDR.FCnt}
	if macPL.FPort == nil {
		sess.fCntUp, sess.seen = frame.FCnt, true
		return frame, nil
	}
	frame.FPort = *macPL.FPort

	key := sess.AppSKey
	if frame.FPort == 0 {
		key = sess.NwkSKey
	}
	if err := phy.DecryptFRMPayload(key); err != nil {
		return nil, fmt.Errorf("failed to decrypt FRMPayload: %w", err)
	}

	for _, pl := range macPL.FRMPayload {
		if data, ok := pl.(*lorawan.DataPayload); ok {
			frame.FRMPayload = append(frame.FRMPayload, data.Bytes...)
		}
	}

	sess.fCntUp, sess.seen = frame.FCnt, true
	return frame, nil
}
