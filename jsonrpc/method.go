// Package jsonrpc defines the JSON-RPC surface exchanged with a confidential gateway.
package jsonrpc

import (
	"encoding"
	"fmt"
)

// Method is a JSON-RPC method understood by a confidential gateway.
type Method uint8

// Supported methods.
const (
	MethodUnknown Method = iota
	MethodGetPublicKey
	MethodCallEnc
	MethodSendTransaction
	MethodGetTransactionReceipt
	MethodGetCode
	MethodGetLogs
	MethodEstimateGas

	methodMax
)

var (
	_ encoding.TextMarshaler   = Method(0)
	_ encoding.TextUnmarshaler = (*Method)(nil)
)

var methodNames = [methodMax]string{
	MethodUnknown:               "",
	MethodGetPublicKey:          "confidential_getPublicKey",
	MethodCallEnc:               "confidential_call_enc",
	MethodSendTransaction:       "eth_sendTransaction",
	MethodGetTransactionReceipt: "eth_getTransactionReceipt",
	MethodGetCode:               "eth_getCode",
	MethodGetLogs:               "eth_getLogs",
	MethodEstimateGas:           "eth_estimateGas",
}

var methodsByName = func() map[string]Method {
	m := make(map[string]Method, len(methodNames))
	for i, name := range methodNames {
		if name != "" {
			m[name] = Method(i)
		}
	}
	return m
}()

// ParseMethod returns the method with the given wire name.
func ParseMethod(name string) (Method, bool) {
	m, ok := methodsByName[name]
	return m, ok
}

// Methods returns all known methods.
func Methods() []Method {
	ms := make([]Method, 0, methodMax-1)
	for m := MethodUnknown + 1; m < methodMax; m++ {
		ms = append(ms, m)
	}
	return ms
}

// String returns the wire name of the method.
func (m Method) String() string {
	if m >= methodMax || m == MethodUnknown {
		return fmt.Sprintf("[unknown method: %d]", uint8(m))
	}
	return methodNames[m]
}

// MarshalText encodes the method into its wire name.
func (m Method) MarshalText() ([]byte, error) {
	if m >= methodMax || m == MethodUnknown {
		return nil, fmt.Errorf("jsonrpc: unknown method: %d", uint8(m))
	}
	return []byte(methodNames[m]), nil
}

// UnmarshalText decodes the method from its wire name.
func (m *Method) UnmarshalText(text []byte) error {
	parsed, ok := ParseMethod(string(text))
	if !ok {
		return fmt.Errorf("jsonrpc: unknown method: %s", string(text))
	}
	*m = parsed
	return nil
}
