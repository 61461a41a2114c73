// Package onchain accumulates the write intents produced by one processing pass.
package onchain

import (
	"encoding/json"

	"go.uber.org/zap/zapcore"

	"fillScope/internal/model"
)

// Data is an append-only accumulator owned by a single reconciliation task.
// It is not safe for concurrent use; concurrent tasks each own one and the
// results are merged sequentially before flush. Data never deduplicates.
type Data struct {
	orders            []model.NormalizedOrderEvent
	fillEventsPartial []model.FillEvent
	fillEventsOnChain []model.FillEvent
	fillInfos         []model.FillInfo
	orderInfos        []model.OrderInfo
}

func New() *Data {
	return &Data{}
}

func (d *Data) AddOrder(order model.NormalizedOrderEvent) {
	d.orders = append(d.orders, order)
}

func (d *Data) AddPartialFill(fill model.FillEvent) {
	d.fillEventsPartial = append(d.fillEventsPartial, fill)
}

func (d *Data) AddOnChainFill(fill model.FillEvent) {
	d.fillEventsOnChain = append(d.fillEventsOnChain, fill)
}

func (d *Data) AddFillInfo(info model.FillInfo) {
	d.fillInfos = append(d.fillInfos, info)
}

func (d *Data) AddOrderInfo(info model.OrderInfo) {
	d.orderInfos = append(d.orderInfos, info)
}

// Merge appends every record of other, preserving its order.
func (d *Data) Merge(other *Data) {
	if other == nil {
		return
	}
	d.orders = append(d.orders, other.orders...)
	d.fillEventsPartial = append(d.fillEventsPartial, other.fillEventsPartial...)
	d.fillEventsOnChain = append(d.fillEventsOnChain, other.fillEventsOnChain...)
	d.fillInfos = append(d.fillInfos, other.fillInfos...)
	d.orderInfos = append(d.orderInfos, other.orderInfos...)
}

// The accessors return the underlying slices; callers must not modify them.

func (d *Data) Orders() []model.NormalizedOrderEvent { return d.orders }

func (d *Data) FillEventsPartial() []model.FillEvent { return d.fillEventsPartial }

func (d *Data) FillEventsOnChain() []model.FillEvent { return d.fillEventsOnChain }

func (d *Data) FillInfos() []model.FillInfo { return d.fillInfos }

func (d *Data) OrderInfos() []model.OrderInfo { return d.orderInfos }

// Empty reports whether nothing was appended.
func (d *Data) Empty() bool {
	return len(d.orders) == 0 &&
		len(d.fillEventsPartial) == 0 &&
		len(d.fillEventsOnChain) == 0 &&
		len(d.fillInfos) == 0 &&
		len(d.orderInfos) == 0
}

type dataJSON struct {
	Orders            []model.NormalizedOrderEvent `json:"orders"`
	FillEventsPartial []model.FillEvent            `json:"fill_events_partial"`
	FillEventsOnChain []model.FillEvent            `json:"fill_events_on_chain"`
	FillInfos         []model.FillInfo             `json:"fill_infos"`
	OrderInfos        []model.OrderInfo            `json:"order_infos"`
}

func (d *Data) MarshalJSON() ([]byte, error) {
	return json.Marshal(dataJSON{
		Orders:            nonNil(d.orders),
		FillEventsPartial: nonNil(d.fillEventsPartial),
		FillEventsOnChain: nonNil(d.fillEventsOnChain),
		FillInfos:         nonNil(d.fillInfos),
		OrderInfos:        nonNil(d.orderInfos),
	})
}

// MarshalLogObject logs record counts.
func (d *Data) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt("orders", len(d.orders))
	enc.AddInt("fills_partial", len(d.fillEventsPartial))
	enc.AddInt("fills_on_chain", len(d.fillEventsOnChain))
	enc.AddInt("fill_infos", len(d.fillInfos))
	enc.AddInt("order_infos", len(d.orderInfos))
	return nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
