package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/tturner/cipwire/internal/cip/codec"
	"github.com/tturner/cipwire/internal/cip/protocol"
	"github.com/tturner/cipwire/internal/cip/service"
)

// UserFriendlyError provides user-friendly error messages with context and hints
type UserFriendlyError struct {
	Message string
	Reason  string
	Hint    string
	Try     string
	Err     error
}

func (e UserFriendlyError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Message)
	if e.Reason != "" {
		buf.WriteString("\n  Reason: " + e.Reason)
	}
	if e.Hint != "" {
		buf.WriteString("\n  Hint: " + e.Hint)
	}
	if e.Try != "" {
		buf.WriteString("\n  Try: " + e.Try)
	}
	if e.Err != nil {
		buf.WriteString("\n  Details: " + e.Err.Error())
	}
	return buf.String()
}

func (e UserFriendlyError) Unwrap() error {
	return e.Err
}

// WrapNetworkError wraps transport errors with user-friendly context
func WrapNetworkError(err error, addr string) error {
	if err == nil {
		return nil
	}

	return UserFriendlyError{
		Message: fmt.Sprintf("Failed to communicate with device at %s", addr),
		Reason:  extractNetworkReason(err),
		Hint:    "Device may not be a CIP/EtherNet-IP device, or there may be a network connectivity issue",
		Err:     err,
	}
}

// WrapDecodeError explains a framing, schema or caller error from the codec.
// Protocol status errors are routed to WrapStatusError.
func WrapDecodeError(err error, operation string) error {
	if err == nil {
		return nil
	}
	var statusErr *protocol.StatusError
	if stderrors.As(err, &statusErr) {
		return WrapStatusError(statusErr, operation)
	}

	ufe := UserFriendlyError{
		Message: fmt.Sprintf("Could not decode %s", operation),
		Reason:  "CIP protocol error occurred",
		Err:     err,
	}
	var short *codec.ShortError
	var framing *codec.FramingError
	var contract *service.ContractError
	switch {
	case stderrors.As(err, &contract):
		ufe.Message = fmt.Sprintf("Invalid %s request", operation)
		ufe.Reason = contract.Msg
		ufe.Hint = "The request parameters are inconsistent; nothing was sent"
	case stderrors.As(err, &short):
		ufe.Reason = fmt.Sprintf("Response is shorter than its layout: %s needs %d bytes at offset %d, %d available", short.Field, short.Need, short.Offset, short.Have)
		ufe.Hint = "Attribute size hints may not match the device, or the capture is truncated"
		ufe.Try = "Check the attribute sizes with: cipwire catalog"
	case stderrors.As(err, &framing):
		ufe.Reason = fmt.Sprintf("Malformed %s framing: %s", framing.Layer, framing.Msg)
		ufe.Hint = "The bytes may not be a CIP reply, or they may include the wrong framing layer"
		ufe.Try = "Toggle --cpf to match how the bytes were captured"
	case stderrors.Is(err, codec.ErrReleased):
		ufe.Reason = "A buffer was used after its ownership was transferred"
	}
	return ufe
}

// WrapStatusError explains a terminal CIP status returned by the device.
func WrapStatusError(err *protocol.StatusError, operation string) error {
	if err == nil {
		return nil
	}
	ufe := UserFriendlyError{
		Message: fmt.Sprintf("CIP operation failed: %s", operation),
		Reason:  fmt.Sprintf("Device returned general status 0x%02X (%s)", uint8(err.General), err.General),
		Hint:    "The device may not support this operation, or the CIP path may be incorrect",
		Err:     err,
	}
	switch err.General {
	case protocol.StatusPathDestinationUnknown, protocol.StatusPathSegmentError, protocol.StatusObjectDoesNotExist:
		ufe.Try = "Check the class/instance values against the device's object model"
	case protocol.StatusAttributeNotSupported, protocol.StatusAttributeListError:
		ufe.Try = "Request fewer attributes or verify the attribute ids"
	case protocol.StatusPartialTransfer:
		ufe.Hint = "The device split the reply but this service cannot be continued"
	}
	return ufe
}

// WrapConfigError wraps configuration errors with user-friendly context
func WrapConfigError(err error, configPath string) error {
	if err == nil {
		return nil
	}

	return UserFriendlyError{
		Message: fmt.Sprintf("Configuration error in %s", configPath),
		Reason:  err.Error(),
		Hint:    "Run 'cipwire config init' to write a default configuration",
		Try:     fmt.Sprintf("cipwire config show --config %s", configPath),
		Err:     err,
	}
}

// WrapCatalogError wraps attribute catalog errors.
func WrapCatalogError(err error, catalogPath string) error {
	if err == nil {
		return nil
	}
	source := catalogPath
	if source == "" {
		source = "built-in catalog"
	}
	return UserFriendlyError{
		Message: fmt.Sprintf("Attribute catalog error in %s", source),
		Reason:  err.Error(),
		Hint:    "Every attribute needs a hex id and a positive size in bytes",
		Try:     "cipwire catalog --catalog " + catalogPath,
		Err:     err,
	}
}

func extractNetworkReason(err error) string {
	errStr := err.Error()

	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded") {
		return "Connection timeout - device may be offline or unreachable"
	}
	if strings.Contains(errStr, "connection refused") {
		return "Connection refused - device may not be listening on this port"
	}
	if strings.Contains(errStr, "no route to host") {
		return "No route to host - network routing issue or device unreachable"
	}
	if strings.Contains(errStr, "connection reset") || strings.Contains(errStr, "EOF") {
		return "Connection reset - device closed the connection unexpectedly"
	}

	return "Network communication failed"
}
