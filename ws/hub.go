package ws

// Hub menyimpan koneksi papan antrian dan mem-broadcast setiap perubahan
// antrian atau registrasi ke semua client yang terhubung.

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Client mewakili koneksi WebSocket
type Client struct {
	Conn *websocket.Conn
	Send chan []byte
}

// Pesan adalah bentuk JSON yang diterima papan antrian.
type Pesan struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	count      atomic.Int64
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run berjalan sampai ctx selesai; semua koneksi ditutup saat keluar.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for client := range h.clients {
				h.drop(client)
			}
			return
		case client := <-h.register:
			h.clients[client] = true
			h.count.Add(1)
			log.Debug().Int64("clients", h.count.Load()).Msg("client websocket terdaftar")
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				log.Debug().Int64("clients", h.count.Load()).Msg("client websocket keluar")
			}
		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					// client lambat, putus saja
					h.drop(client)
				}
			}
		}
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.Send)
	h.count.Add(-1)
}

// ClientCount mengembalikan jumlah client yang sedang terhubung.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// Publish membungkus payload menjadi {"type": routingKey, "data": payload}
// lalu mengantrikan broadcast.
func (h *Hub) Publish(ctx context.Context, routingKey string, payload any) error {
	msg, err := json.Marshal(Pesan{Type: routingKey, Data: payload})
	if err != nil {
		return errors.Wrap(err, "encode pesan websocket")
	}
	select {
	case h.broadcast <- msg:
		return nil
	case <-h.done:
		// hub sudah berhenti, tidak ada lagi yang mendengar
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
