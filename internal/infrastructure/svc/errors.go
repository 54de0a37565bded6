package svc

import "errors"

// ErrFeedNotRegistered 错误：配置的交易所没有注册行情源
var ErrFeedNotRegistered = errors.New("price feed not registered")

// ErrStorageInitFailed 错误：存储初始化失败
var ErrStorageInitFailed = errors.New("storage initialization failed")
