// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package notifier

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Mount registers the hub's single websocket endpoint under pathPrefix
// on root, named for metrics middleware the way the rest of this node's
// REST surface names its routes.
func (h *Hub) Mount(root *mux.Router, pathPrefix string) {
	root.PathPrefix(pathPrefix).
		Methods(http.MethodGet).
		Name("WS /notifications").
		HandlerFunc(h.ServeWS)
}
