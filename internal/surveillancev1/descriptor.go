// Package surveillancev1 carries the surveillance.TradeStream contract
// described by proto/surveillance/v1/trades.proto. Descriptors are built at
// init from the same definition and registered with the global registry, so
// messages travel as regular protobuf on the wire and server reflection can
// describe them.
package surveillancev1

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

const (
	protoPackage = "surveillance"
	protoPath    = "surveillance/v1/trades.proto"
)

var (
	File protoreflect.FileDescriptor

	CanonicalTradeDescriptor protoreflect.MessageDescriptor
	TradeBatchDescriptor     protoreflect.MessageDescriptor
	AckDescriptor            protoreflect.MessageDescriptor
	EmptyDescriptor          protoreflect.MessageDescriptor
)

func init() {
	fd, err := protodesc.NewFile(fileDescriptorProto(), nil)
	if err != nil {
		panic(fmt.Sprintf("surveillancev1: build descriptor: %v", err))
	}
	if err := protoregistry.GlobalFiles.RegisterFile(fd); err != nil {
		panic(fmt.Sprintf("surveillancev1: register descriptor: %v", err))
	}

	File = fd
	messages := fd.Messages()
	CanonicalTradeDescriptor = messages.ByName("CanonicalTrade")
	TradeBatchDescriptor = messages.ByName("TradeBatch")
	AckDescriptor = messages.ByName("Ack")
	EmptyDescriptor = messages.ByName("Empty")
}

func fileDescriptorProto() *descriptorpb.FileDescriptorProto {
	return &descriptorpb.FileDescriptorProto{
		Name:    proto.String(protoPath),
		Package: proto.String(protoPackage),
		Syntax:  proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: proto.String("CanonicalTrade"),
				Field: []*descriptorpb.FieldDescriptorProto{
					scalar("event_time_ns", "eventTimeNs", 1, descriptorpb.FieldDescriptorProto_TYPE_INT64),
					scalar("venue", "venue", 2, descriptorpb.FieldDescriptorProto_TYPE_STRING),
					scalar("instrument", "instrument", 3, descriptorpb.FieldDescriptorProto_TYPE_STRING),
					scalar("side", "side", 4, descriptorpb.FieldDescriptorProto_TYPE_STRING),
					scalar("price", "price", 5, descriptorpb.FieldDescriptorProto_TYPE_DOUBLE),
					scalar("quantity", "quantity", 6, descriptorpb.FieldDescriptorProto_TYPE_DOUBLE),
					scalar("participant_id", "participantId", 7, descriptorpb.FieldDescriptorProto_TYPE_STRING),
					scalar("order_id", "orderId", 8, descriptorpb.FieldDescriptorProto_TYPE_STRING),
					scalar("execution_id", "executionId", 9, descriptorpb.FieldDescriptorProto_TYPE_STRING),
					scalar("origin", "origin", 10, descriptorpb.FieldDescriptorProto_TYPE_STRING),
				},
			},
			{
				Name: proto.String("TradeBatch"),
				Field: []*descriptorpb.FieldDescriptorProto{
					{
						Name:     proto.String("trades"),
						JsonName: proto.String("trades"),
						Number:   proto.Int32(1),
						Label:    descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum(),
						Type:     descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum(),
						TypeName: proto.String("." + protoPackage + ".CanonicalTrade"),
					},
				},
			},
			{
				Name: proto.String("Ack"),
				Field: []*descriptorpb.FieldDescriptorProto{
					scalar("success", "success", 1, descriptorpb.FieldDescriptorProto_TYPE_BOOL),
					scalar("message", "message", 2, descriptorpb.FieldDescriptorProto_TYPE_STRING),
				},
			},
			{
				Name: proto.String("Empty"),
			},
		},
		Service: []*descriptorpb.ServiceDescriptorProto{
			{
				Name: proto.String("TradeStream"),
				Method: []*descriptorpb.MethodDescriptorProto{
					{
						Name:       proto.String("PublishTrades"),
						InputType:  proto.String("." + protoPackage + ".TradeBatch"),
						OutputType: proto.String("." + protoPackage + ".Ack"),
					},
					{
						Name:            proto.String("Subscribe"),
						InputType:       proto.String("." + protoPackage + ".Empty"),
						OutputType:      proto.String("." + protoPackage + ".CanonicalTrade"),
						ServerStreaming: proto.Bool(true),
					},
				},
			},
		},
	}
}

func scalar(name, jsonName string, number int32, typ descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:     proto.String(name),
		JsonName: proto.String(jsonName),
		Number:   proto.Int32(number),
		Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:     typ.Enum(),
	}
}
