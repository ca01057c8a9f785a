package handlers

import "github.com/fatflowers/caterpay/pkg/response"

// RespError documents the error envelope. Data carries the error text.
type RespError struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    string                   `json:"data"`
}
