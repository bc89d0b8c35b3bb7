package podcast

import (
	"net/http"
	"sync"

	"github.com/commute-learn/podgo/internal/pkg/cmdapp"
	"github.com/commute-learn/podgo/internal/pkg/status"
	"github.com/gorilla/websocket"
)

// a client sends the job ID it wants to follow as a plain text message,
// the service pushes every change of that job back as JSON

var idConnectionMap = make(map[string][]*websocket.Conn)
var connectionIDMap = make(map[*websocket.Conn]string)
var mapLock = sync.Mutex{}

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	}}

type websocketHandler struct {
	data *ServiceData
}

func (h websocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cmdapp.Log.Infof("ws request from %s", r.Host)

	c, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "Can not init ws connection", http.StatusBadRequest)
		cmdapp.Log.Error(err)
		return
	}
	go handleConnection(c)
}

func handleConnection(conn *websocket.Conn) {
	defer deleteConnection(conn)
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			cmdapp.Log.Debugf("ws closed: %v", err)
			break
		}
		saveConnection(conn, string(message))
	}
}

func saveConnection(conn *websocket.Conn, id string) {
	mapLock.Lock()
	defer mapLock.Unlock()
	dropConnection(conn)
	connectionIDMap[conn] = id
	idConnectionMap[id] = append(idConnectionMap[id], conn)
	cmdapp.Log.Infof("ws subscribed to %s, connections: %d", id, len(connectionIDMap))
}

func deleteConnection(conn *websocket.Conn) {
	mapLock.Lock()
	defer mapLock.Unlock()
	defer conn.Close()
	dropConnection(conn)
	cmdapp.Log.Infof("ws connection closed, left: %d", len(connectionIDMap))
}

func dropConnection(conn *websocket.Conn) {
	id, found := connectionIDMap[conn]
	if found {
		conns := idConnectionMap[id]
		for i, c := range conns {
			if c == conn {
				idConnectionMap[id] = append(conns[:i], conns[i+1:]...)
				break
			}
		}
		if len(idConnectionMap[id]) == 0 {
			delete(idConnectionMap, id)
		}
	}
	delete(connectionIDMap, conn)
}

// listenEvents pushes job changes to the subscribed ws connections
func listenEvents(events <-chan status.JobRecord) {
	for rec := range events {
		sendMsg(rec)
	}
	cmdapp.Log.Infof("Stopped listening for job events")
}

func sendMsg(rec status.JobRecord) {
	mapLock.Lock()
	conns := append([]*websocket.Conn{}, idConnectionMap[rec.ID]...)
	mapLock.Unlock()
	for _, conn := range conns {
		if err := conn.WriteJSON(rec); err != nil {
			cmdapp.Log.Error(err)
		}
	}
}
