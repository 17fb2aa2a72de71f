// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"net"
	"strconv"
)

// listen binds a TCP listener on addr for the gRPC server.
func listen(addr string) (net.Listener, error) {
	return net.Listen("tcp", addr)
}

// httpAddr derives the HTTP (notifications + metrics) listen address
// from the gRPC listen address by incrementing its port by one, so a
// single ListenAddress config value is enough to start both servers.
func httpAddr(grpcAddr string) string {
	host, portStr, err := net.SplitHostPort(grpcAddr)
	if err != nil {
		return grpcAddr
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return grpcAddr
	}
	return fmt.Sprintf("%s:%d", host, port+1)
}
