package events

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"fillScope/internal/model"
)

// ErrTopicCount reports a log whose indexed-field arity differs from its definition.
// Contracts may reuse a topic across versions with different arity, so this
// is a decode failure rather than a classification miss.
var ErrTopicCount = errors.New("topic count mismatch")

// Decode converts a raw log into a typed event using def.
func Decode(log model.RawLog, def *Definition) (*model.DecodedEvent, error) {
	if def == nil {
		return nil, fmt.Errorf("nil definition")
	}
	if len(log.Topics) != def.NumTopics {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrTopicCount, def.NumTopics, len(log.Topics))
	}
	if log.Topic0() != def.Topic() {
		return nil, fmt.Errorf("topic0 %s does not match %s", log.Topic0().Hex(), def.Event.Name)
	}

	fields := make(model.Fields)

	indexed := indexedArguments(def.Event.Inputs)
	if len(indexed) > 0 {
		if err := abi.ParseTopicsIntoMap(fields, indexed, log.Topics[1:]); err != nil {
			return nil, fmt.Errorf("parse topics: %w", err)
		}
	}

	nonIndexed := def.Event.Inputs.NonIndexed()
	if len(nonIndexed) > 0 {
		values := make(map[string]interface{}, len(nonIndexed))
		if err := nonIndexed.UnpackIntoMap(values, log.Data); err != nil {
			return nil, fmt.Errorf("unpack %s: %w", def.Event.Name, err)
		}
		for _, arg := range nonIndexed {
			value := values[arg.Name]
			if arg.Type.T == abi.TupleTy {
				if err := flattenTuple(fields, arg.Name, arg.Type, value); err != nil {
					return nil, err
				}
				continue
			}
			fields[arg.Name] = value
		}
	}

	return &model.DecodedEvent{
		Kind:    def.Kind,
		SubKind: def.SubKind,
		Base:    log.Base(),
		Fields:  fields,
	}, nil
}

func flattenTuple(fields model.Fields, prefix string, typ abi.Type, value interface{}) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct || rv.NumField() != len(typ.TupleRawNames) {
		return fmt.Errorf("tuple %s: unexpected value %T", prefix, value)
	}
	for i, name := range typ.TupleRawNames {
		fields[prefix+"."+name] = rv.Field(i).Interface()
	}
	return nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}
