package server

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
)

// ---------------------------------------------------------------------------
// pl0.v1 protobuf schema
// ---------------------------------------------------------------------------
//
// The schema is built from descriptors at init; the structs in messages.go
// are the only Go types. protoCodec maps between the two.
//
//	message Instruction     { int64 op = 1; int64 l = 2; int64 m = 3; }
//	message Symbol          { string kind = 1; string name = 2; int64 value = 3;
//	                          int64 level = 4; int64 address = 5; bool used = 6; }
//	message CompileRequest  { string source = 1; }
//	message CompileResponse { bool success = 1; repeated Instruction code = 2;
//	                          string listing = 3; repeated Symbol symbols = 4;
//	                          string error = 5; int64 line = 6; int64 column = 7; }
//	message RunRequest      { string source = 1; repeated Instruction code = 2;
//	                          repeated int64 input = 3; }
//	message RunResponse     { bool success = 1; repeated int64 output = 2;
//	                          int64 steps = 3; string error = 4; }
// ---------------------------------------------------------------------------

const protoPackage = "pl0.v1"

type fieldSpec struct {
	name     string
	kind     descriptorpb.FieldDescriptorProto_Type
	repeated bool
	message  string
}

const (
	tString  = descriptorpb.FieldDescriptorProto_TYPE_STRING
	tInt64   = descriptorpb.FieldDescriptorProto_TYPE_INT64
	tBool    = descriptorpb.FieldDescriptorProto_TYPE_BOOL
	tMessage = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE
)

func scalar(name string, kind descriptorpb.FieldDescriptorProto_Type) fieldSpec {
	return fieldSpec{name: name, kind: kind}
}

func repeated(name string, kind descriptorpb.FieldDescriptorProto_Type) fieldSpec {
	return fieldSpec{name: name, kind: kind, repeated: true}
}

func messages(name, message string) fieldSpec {
	return fieldSpec{name: name, kind: tMessage, repeated: true, message: message}
}

// messageProto numbers fields in declaration order from 1.
func messageProto(name string, fields ...fieldSpec) *descriptorpb.DescriptorProto {
	d := &descriptorpb.DescriptorProto{Name: proto.String(name)}
	for i, f := range fields {
		label := descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL
		if f.repeated {
			label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED
		}
		fd := &descriptorpb.FieldDescriptorProto{
			Name:   proto.String(f.name),
			Number: proto.Int32(int32(i + 1)),
			Label:  label.Enum(),
			Type:   f.kind.Enum(),
		}
		if f.message != "" {
			fd.TypeName = proto.String("." + protoPackage + "." + f.message)
		}
		d.Field = append(d.Field, fd)
	}
	return d
}

func methodProto(name, in, out string) *descriptorpb.MethodDescriptorProto {
	return &descriptorpb.MethodDescriptorProto{
		Name:       proto.String(name),
		InputType:  proto.String("." + protoPackage + "." + in),
		OutputType: proto.String("." + protoPackage + "." + out),
	}
}

func buildToolchainFile() protoreflect.FileDescriptor {
	file := &descriptorpb.FileDescriptorProto{
		Name:    proto.String("pl0/v1/toolchain.proto"),
		Package: proto.String(protoPackage),
		Syntax:  proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			messageProto("Instruction",
				scalar("op", tInt64), scalar("l", tInt64), scalar("m", tInt64)),
			messageProto("Symbol",
				scalar("kind", tString), scalar("name", tString), scalar("value", tInt64),
				scalar("level", tInt64), scalar("address", tInt64), scalar("used", tBool)),
			messageProto("CompileRequest",
				scalar("source", tString)),
			messageProto("CompileResponse",
				scalar("success", tBool), messages("code", "Instruction"),
				scalar("listing", tString), messages("symbols", "Symbol"),
				scalar("error", tString), scalar("line", tInt64), scalar("column", tInt64)),
			messageProto("RunRequest",
				scalar("source", tString), messages("code", "Instruction"),
				repeated("input", tInt64)),
			messageProto("RunResponse",
				scalar("success", tBool), repeated("output", tInt64),
				scalar("steps", tInt64), scalar("error", tString)),
		},
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name: proto.String("ToolchainService"),
			Method: []*descriptorpb.MethodDescriptorProto{
				methodProto("Compile", "CompileRequest", "CompileResponse"),
				methodProto("Run", "RunRequest", "RunResponse"),
			},
		}},
	}
	fd, err := protodesc.NewFile(file, nil)
	if err != nil {
		panic(fmt.Sprintf("pl0.v1 schema: %v", err))
	}
	return fd
}

// ToolchainFile describes the pl0.v1 messages and service.
var ToolchainFile = buildToolchainFile()

func messageDesc(name string) protoreflect.MessageDescriptor {
	return ToolchainFile.Messages().ByName(protoreflect.Name(name))
}

var (
	compileRequestDesc  = messageDesc("CompileRequest")
	compileResponseDesc = messageDesc("CompileResponse")
	runRequestDesc      = messageDesc("RunRequest")
	runResponseDesc     = messageDesc("RunResponse")
)

// ---------------------------------------------------------------------------
// Codec
// ---------------------------------------------------------------------------

// protoCodec carries the message structs as binary protobuf. It takes the
// "proto" name, so it also serves gRPC and gRPC-Web.
type protoCodec struct{}

func (protoCodec) Name() string {
	return "proto"
}

func (protoCodec) Marshal(msg any) ([]byte, error) {
	var m *dynamicpb.Message
	switch v := msg.(type) {
	case *CompileRequest:
		m = dynamicpb.NewMessage(compileRequestDesc)
		setString(m, "source", v.Source)
	case *CompileResponse:
		m = dynamicpb.NewMessage(compileResponseDesc)
		setBool(m, "success", v.Success)
		appendInstructions(m, v.Code)
		setString(m, "listing", v.Listing)
		appendSymbols(m, v.Symbols)
		setString(m, "error", v.Error)
		setInt(m, "line", v.Line)
		setInt(m, "column", v.Column)
	case *RunRequest:
		m = dynamicpb.NewMessage(runRequestDesc)
		setString(m, "source", v.Source)
		appendInstructions(m, v.Code)
		appendInts(m, "input", v.Input)
	case *RunResponse:
		m = dynamicpb.NewMessage(runResponseDesc)
		setBool(m, "success", v.Success)
		appendInts(m, "output", v.Output)
		setInt(m, "steps", v.Steps)
		setString(m, "error", v.Error)
	default:
		return nil, fmt.Errorf("marshal %T: not a pl0.v1 message", msg)
	}
	data, err := proto.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", msg, err)
	}
	return data, nil
}

func (protoCodec) Unmarshal(data []byte, msg any) error {
	var desc protoreflect.MessageDescriptor
	switch msg.(type) {
	case *CompileRequest:
		desc = compileRequestDesc
	case *CompileResponse:
		desc = compileResponseDesc
	case *RunRequest:
		desc = runRequestDesc
	case *RunResponse:
		desc = runResponseDesc
	default:
		return fmt.Errorf("unmarshal %T: not a pl0.v1 message", msg)
	}
	m := dynamicpb.NewMessage(desc)
	if err := proto.Unmarshal(data, m); err != nil {
		return fmt.Errorf("unmarshal %T: %w", msg, err)
	}

	switch v := msg.(type) {
	case *CompileRequest:
		*v = CompileRequest{Source: getString(m, "source")}
	case *CompileResponse:
		*v = CompileResponse{
			Success: getBool(m, "success"),
			Code:    getInstructions(m),
			Listing: getString(m, "listing"),
			Symbols: getSymbols(m),
			Error:   getString(m, "error"),
			Line:    getInt(m, "line"),
			Column:  getInt(m, "column"),
		}
	case *RunRequest:
		*v = RunRequest{
			Source: getString(m, "source"),
			Code:   getInstructions(m),
			Input:  getInts(m, "input"),
		}
	case *RunResponse:
		*v = RunResponse{
			Success: getBool(m, "success"),
			Output:  getInts(m, "output"),
			Steps:   getInt(m, "steps"),
			Error:   getString(m, "error"),
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Field access
// ---------------------------------------------------------------------------

func fieldOf(m protoreflect.Message, name string) protoreflect.FieldDescriptor {
	return m.Descriptor().Fields().ByName(protoreflect.Name(name))
}

func setString(m protoreflect.Message, name, v string) {
	m.Set(fieldOf(m, name), protoreflect.ValueOfString(v))
}

func setInt(m protoreflect.Message, name string, v int) {
	m.Set(fieldOf(m, name), protoreflect.ValueOfInt64(int64(v)))
}

func setBool(m protoreflect.Message, name string, v bool) {
	m.Set(fieldOf(m, name), protoreflect.ValueOfBool(v))
}

func getString(m protoreflect.Message, name string) string {
	return m.Get(fieldOf(m, name)).String()
}

func getInt(m protoreflect.Message, name string) int {
	return int(m.Get(fieldOf(m, name)).Int())
}

func getBool(m protoreflect.Message, name string) bool {
	return m.Get(fieldOf(m, name)).Bool()
}

func appendInts(m protoreflect.Message, name string, vs []int) {
	if len(vs) == 0 {
		return
	}
	list := m.Mutable(fieldOf(m, name)).List()
	for _, v := range vs {
		list.Append(protoreflect.ValueOfInt64(int64(v)))
	}
}

// getInts never returns nil, so an empty output still encodes as [] in JSON.
func getInts(m protoreflect.Message, name string) []int {
	list := m.Get(fieldOf(m, name)).List()
	out := make([]int, list.Len())
	for i := range out {
		out[i] = int(list.Get(i).Int())
	}
	return out
}

func appendInstructions(m protoreflect.Message, code []Instruction) {
	if len(code) == 0 {
		return
	}
	list := m.Mutable(fieldOf(m, "code")).List()
	for _, in := range code {
		elem := list.NewElement()
		im := elem.Message()
		setInt(im, "op", in.Op)
		setInt(im, "l", in.L)
		setInt(im, "m", in.M)
		list.Append(elem)
	}
}

func getInstructions(m protoreflect.Message) []Instruction {
	list := m.Get(fieldOf(m, "code")).List()
	if list.Len() == 0 {
		return nil
	}
	out := make([]Instruction, list.Len())
	for i := range out {
		im := list.Get(i).Message()
		out[i] = Instruction{Op: getInt(im, "op"), L: getInt(im, "l"), M: getInt(im, "m")}
	}
	return out
}

func appendSymbols(m protoreflect.Message, symbols []Symbol) {
	if len(symbols) == 0 {
		return
	}
	list := m.Mutable(fieldOf(m, "symbols")).List()
	for _, sym := range symbols {
		elem := list.NewElement()
		sm := elem.Message()
		setString(sm, "kind", sym.Kind)
		setString(sm, "name", sym.Name)
		setInt(sm, "value", sym.Value)
		setInt(sm, "level", sym.Level)
		setInt(sm, "address", sym.Address)
		setBool(sm, "used", sym.Used)
		list.Append(elem)
	}
}

func getSymbols(m protoreflect.Message) []Symbol {
	list := m.Get(fieldOf(m, "symbols")).List()
	if list.Len() == 0 {
		return nil
	}
	out := make([]Symbol, list.Len())
	for i := range out {
		sm := list.Get(i).Message()
		out[i] = Symbol{
			Kind:    getString(sm, "kind"),
			Name:    getString(sm, "name"),
			Value:   getInt(sm, "value"),
			Level:   getInt(sm, "level"),
			Address: getInt(sm, "address"),
			Used:    getBool(sm, "used"),
		}
	}
	return out
}
