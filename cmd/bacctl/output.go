// Copyright 2025 Edgeo SCADA
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/edgeframe/bacstack/bacnet"
)

func parseObjectIdentifier(s string) (bacnet.ObjectIdentifier, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return bacnet.ObjectIdentifier{}, fmt.Errorf("expected format type:instance (e.g., analog-input:1)")
	}

	instance, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return bacnet.ObjectIdentifier{}, fmt.Errorf("invalid instance number: %s", parts[1])
	}

	if typeNum, err := strconv.ParseUint(parts[0], 10, 16); err == nil {
		return bacnet.NewObjectIdentifier(bacnet.ObjectType(typeNum), uint32(instance)), nil
	}

	objType, ok := bacnet.ParseObjectType(strings.ToLower(parts[0]))
	if !ok {
		return bacnet.ObjectIdentifier{}, fmt.Errorf("unknown object type: %s", parts[0])
	}

	return bacnet.NewObjectIdentifier(objType, uint32(instance)), nil
}

func parsePropertyIdentifier(s string) (bacnet.PropertyIdentifier, error) {
	if propNum, err := strconv.ParseUint(s, 10, 32); err == nil {
		return bacnet.PropertyIdentifier(propNum), nil
	}

	prop, ok := bacnet.ParsePropertyIdentifier(strings.ToLower(s))
	if !ok {
		return 0, fmt.Errorf("unknown property: %s", s)
	}

	return prop, nil
}

// parseValue converts a CLI-supplied literal into the Value union a
// WriteProperty call needs, guessing the application tag the same way
// the user would write it: bare numbers, true/false, quoted strings.
func parseValue(s string) (bacnet.Value, error) {
	s = strings.TrimSpace(s)

	if strings.EqualFold(s, "null") {
		return bacnet.NullValue(), nil
	}

	switch strings.ToLower(s) {
	case "true", "active", "on":
		return bacnet.BooleanValue(true), nil
	case "false", "inactive", "off":
		return bacnet.BooleanValue(false), nil
	}

	if (strings.HasPrefix(s, "\"") && strings.HasSuffix(s, "\"")) ||
		(strings.HasPrefix(s, "'") && strings.HasSuffix(s, "'")) {
		return bacnet.CharacterStringValue(s[1 : len(s)-1]), nil
	}

	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 32); err == nil {
			return bacnet.RealValue(float32(f)), nil
		}
	}

	if i, err := strconv.ParseInt(s, 10, 32); err == nil {
		if i < 0 {
			return bacnet.SignedValue(int32(i)), nil
		}
		return bacnet.UnsignedValue(uint32(i)), nil
	}

	return bacnet.CharacterStringValue(s), nil
}

func formatValue(value bacnet.Value) string {
	return value.String()
}

func formatValueJSON(value bacnet.Value) string {
	switch value.Kind {
	case bacnet.ValueNull:
		return "null"
	case bacnet.ValueCharacterString:
		return fmt.Sprintf("%q", value.Text)
	case bacnet.ValueObjectIdentifier:
		return fmt.Sprintf("%q", value.String())
	default:
		return value.String()
	}
}

func valuesEqual(a, b bacnet.Value) bool {
	return a.String() == b.String()
}

func formatAddress(addr bacnet.Address) string {
	if len(addr.Addr) == 4 {
		return fmt.Sprintf("%d.%d.%d.%d", addr.Addr[0], addr.Addr[1], addr.Addr[2], addr.Addr[3])
	} else if len(addr.Addr) == 6 {
		port := int(addr.Addr[4])<<8 | int(addr.Addr[5])
		return fmt.Sprintf("%d.%d.%d.%d:%d", addr.Addr[0], addr.Addr[1], addr.Addr[2], addr.Addr[3], port)
	}
	return fmt.Sprintf("%x", addr.Addr)
}

func outputValueTable(objectID bacnet.ObjectIdentifier, propID bacnet.PropertyIdentifier, value bacnet.Value) error {
	fmt.Printf("Object:   %s\n", objectID.String())
	fmt.Printf("Property: %s\n", propID.String())
	fmt.Printf("Value:    %s\n", formatValue(value))
	return nil
}

func outputValueJSON(objectID bacnet.ObjectIdentifier, propID bacnet.PropertyIdentifier, value bacnet.Value) error {
	fmt.Printf(`{"object": "%s", "property": "%s", "value": %s}`+"\n",
		objectID.String(), propID.String(), formatValueJSON(value))
	return nil
}

func outputValueCSV(objectID bacnet.ObjectIdentifier, propID bacnet.PropertyIdentifier, value bacnet.Value) error {
	fmt.Printf("%s,%s,%s\n", objectID.String(), propID.String(), formatValue(value))
	return nil
}
