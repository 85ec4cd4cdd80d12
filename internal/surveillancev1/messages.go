package surveillancev1

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	"trade-ingestor-go/internal/models"
)

func NewCanonicalTrade(trade models.Trade) *dynamicpb.Message {
	m := dynamicpb.NewMessage(CanonicalTradeDescriptor)
	fields := CanonicalTradeDescriptor.Fields()

	m.Set(fields.ByName("event_time_ns"), protoreflect.ValueOfInt64(trade.EventTimeNs))
	m.Set(fields.ByName("venue"), protoreflect.ValueOfString(trade.Venue))
	m.Set(fields.ByName("instrument"), protoreflect.ValueOfString(trade.Instrument))
	m.Set(fields.ByName("side"), protoreflect.ValueOfString(string(trade.Side)))
	m.Set(fields.ByName("price"), protoreflect.ValueOfFloat64(trade.Price))
	m.Set(fields.ByName("quantity"), protoreflect.ValueOfFloat64(trade.Quantity))
	m.Set(fields.ByName("participant_id"), protoreflect.ValueOfString(trade.ParticipantID))
	m.Set(fields.ByName("order_id"), protoreflect.ValueOfString(trade.OrderID))
	m.Set(fields.ByName("execution_id"), protoreflect.ValueOfString(trade.ExecutionID))
	m.Set(fields.ByName("origin"), protoreflect.ValueOfString(trade.Origin))

	return m
}

func NewTradeBatch(batch models.Batch) *dynamicpb.Message {
	m := dynamicpb.NewMessage(TradeBatchDescriptor)
	list := m.Mutable(TradeBatchDescriptor.Fields().ByName("trades")).List()
	for _, trade := range batch {
		list.Append(protoreflect.ValueOfMessage(NewCanonicalTrade(trade)))
	}
	return m
}

func NewAck(ack models.Ack) *dynamicpb.Message {
	m := dynamicpb.NewMessage(AckDescriptor)
	fields := AckDescriptor.Fields()
	m.Set(fields.ByName("success"), protoreflect.ValueOfBool(ack.Success))
	m.Set(fields.ByName("message"), protoreflect.ValueOfString(ack.Message))
	return m
}

func NewEmpty() *dynamicpb.Message {
	return dynamicpb.NewMessage(EmptyDescriptor)
}

func TradeFromMessage(msg proto.Message) (models.Trade, error) {
	m, err := expect(msg, CanonicalTradeDescriptor)
	if err != nil {
		return models.Trade{}, err
	}
	fields := m.Descriptor().Fields()

	return models.Trade{
		EventTimeNs:   m.Get(fields.ByName("event_time_ns")).Int(),
		Venue:         m.Get(fields.ByName("venue")).String(),
		Instrument:    m.Get(fields.ByName("instrument")).String(),
		Side:          models.Side(m.Get(fields.ByName("side")).String()),
		Price:         m.Get(fields.ByName("price")).Float(),
		Quantity:      m.Get(fields.ByName("quantity")).Float(),
		ParticipantID: m.Get(fields.ByName("participant_id")).String(),
		OrderID:       m.Get(fields.ByName("order_id")).String(),
		ExecutionID:   m.Get(fields.ByName("execution_id")).String(),
		Origin:        m.Get(fields.ByName("origin")).String(),
	}, nil
}

func BatchFromMessage(msg proto.Message) (models.Batch, error) {
	m, err := expect(msg, TradeBatchDescriptor)
	if err != nil {
		return nil, err
	}

	list := m.Get(m.Descriptor().Fields().ByName("trades")).List()
	batch := make(models.Batch, 0, list.Len())
	for i := 0; i < list.Len(); i++ {
		trade, err := TradeFromMessage(list.Get(i).Message().Interface())
		if err != nil {
			return nil, fmt.Errorf("trade %d: %w", i, err)
		}
		batch = append(batch, trade)
	}
	return batch, nil
}

func AckFromMessage(msg proto.Message) (models.Ack, error) {
	m, err := expect(msg, AckDescriptor)
	if err != nil {
		return models.Ack{}, err
	}
	fields := m.Descriptor().Fields()

	return models.Ack{
		Success: m.Get(fields.ByName("success")).Bool(),
		Message: m.Get(fields.ByName("message")).String(),
	}, nil
}

func expect(msg proto.Message, want protoreflect.MessageDescriptor) (protoreflect.Message, error) {
	if msg == nil {
		return nil, fmt.Errorf("nil %s message", want.FullName())
	}
	m := msg.ProtoReflect()
	if got := m.Descriptor().FullName(); got != want.FullName() {
		return nil, fmt.Errorf("unexpected message %s, want %s", got, want.FullName())
	}
	return m, nil
}
