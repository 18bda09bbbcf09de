package admin

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Request and response envelopes carried inside admin frames. Only the
// type tag is interpreted on the client side, and only when the caller
// opts into one of the As* accessors; Data stays opaque in transit.
type Request struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type Response struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Request types understood by the conductor admin interface.
const (
	TypeListCells        = "list_cells"
	TypeListDNAs         = "list_dnas"
	TypeListApps         = "list_apps"
	TypeGenerateAgentKey = "generate_agent_key"
	TypeInstallApp       = "install_app"
	TypeAttachAppPort    = "attach_app_port"
	TypeSysTime          = "sys_time"
)

// Response types.
const (
	TypeCells           = "cells"
	TypeDNAs            = "dnas"
	TypeApps            = "apps"
	TypeAgentKey        = "agent_key"
	TypeAppInstalled    = "app_installed"
	TypeAppPortAttached = "app_port_attached"
	TypeSysTimeReply    = "sys_time_reply"
	TypeError           = "error"
)

// ErrUnexpectedResponse reports a response whose type tag does not match
// what the accessor expected. Callers can recover instead of aborting.
var ErrUnexpectedResponse = errors.New("admin: unexpected response type")

// Cell identifies one running cell: a DNA instantiated for an agent.
type Cell struct {
	DNA   string `json:"dna"`
	Agent string `json:"agent"`
}

// AppInfo describes one installed app and the cells it created.
type AppInfo struct {
	ID    string `json:"id"`
	Cells []Cell `json:"cells"`
}

// InstallAppArgs is the payload for an install_app request. DNAPaths are
// opaque strings handed to the conductor; no packaging happens here.
type InstallAppArgs struct {
	AppID    string   `json:"app_id"`
	AgentKey string   `json:"agent_key"`
	DNAPaths []string `json:"dna_paths"`
}

// AttachAppPortArgs requests an app interface on the given port
// (0 = conductor's choice).
type AttachAppPortArgs struct {
	Port int `json:"port"`
}

func ListCells() Request        { return Request{Type: TypeListCells} }
func ListDNAs() Request         { return Request{Type: TypeListDNAs} }
func ListApps() Request         { return Request{Type: TypeListApps} }
func GenerateAgentKey() Request { return Request{Type: TypeGenerateAgentKey} }
func SysTime() Request          { return Request{Type: TypeSysTime} }

func InstallApp(args InstallAppArgs) Request {
	return Request{Type: TypeInstallApp, Data: mustMarshal(args)}
}

func AttachAppPort(args AttachAppPortArgs) Request {
	return Request{Type: TypeAttachAppPort, Data: mustMarshal(args)}
}

// AsCells unwraps a cells response.
func AsCells(resp Response) ([]Cell, error) {
	var out []Cell
	if err := unwrap(resp, TypeCells, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AsDNAs unwraps a dnas response.
func AsDNAs(resp Response) ([]string, error) {
	var out []string
	if err := unwrap(resp, TypeDNAs, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AsApps unwraps an apps response.
func AsApps(resp Response) ([]AppInfo, error) {
	var out []AppInfo
	if err := unwrap(resp, TypeApps, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AsAgentKey unwraps a generated agent key.
func AsAgentKey(resp Response) (string, error) {
	var out string
	if err := unwrap(resp, TypeAgentKey, &out); err != nil {
		return "", err
	}
	return out, nil
}

// AsInstalledApp unwraps an app_installed response.
func AsInstalledApp(resp Response) (AppInfo, error) {
	var out AppInfo
	if err := unwrap(resp, TypeAppInstalled, &out); err != nil {
		return AppInfo{}, err
	}
	return out, nil
}

// AsAppPort unwraps the port an app interface was attached on.
func AsAppPort(resp Response) (int, error) {
	var out int
	if err := unwrap(resp, TypeAppPortAttached, &out); err != nil {
		return 0, err
	}
	return out, nil
}

// AsSysTime unwraps the conductor's clock in microseconds since epoch.
func AsSysTime(resp Response) (int64, error) {
	var out int64
	if err := unwrap(resp, TypeSysTimeReply, &out); err != nil {
		return 0, err
	}
	return out, nil
}

func unwrap(resp Response, wantType string, out any) error {
	if resp.Type != wantType {
		return fmt.Errorf("%w: want %q, got %q", ErrUnexpectedResponse, wantType, resp.Type)
	}
	if len(resp.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("admin: decode %s response: %w", wantType, err)
	}
	return nil
}

func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		// All argument types above are plain structs of strings and ints.
		panic(fmt.Sprintf("admin: marshal request args: %v", err))
	}
	return data
}
