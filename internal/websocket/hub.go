package websocket

import (
	"bytes"
	"sync"
	"sync/atomic"

	jsoniter "github.com/json-iterator/go"

	"fxtrado/internal/engine"
	"fxtrado/pkg/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// jsonBufferPool переиспользует буферы сериализации: рассылка идет
// каждую секунду по всем символам, аллокации на каждый Broadcast
// не нужны.
var jsonBufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 512))
	},
}

// Hub управляет всеми активными WebSocket соединениями
//
// Центральный менеджер рассылки котировок и свечей подключенным
// клиентам. Регистрация, отмена регистрации и broadcast проходят
// через каналы; доступ к карте клиентов потокобезопасен.
//
// Использование:
//  1. Создать hub: hub := NewHub()
//  2. Запустить в горутине: go hub.Run()
//  3. Отправлять сообщения: hub.Broadcast(message)
type Hub struct {
	// Зарегистрированные клиенты
	clients map[*Client]bool

	// Broadcast канал для отправки сообщений всем клиентам
	broadcast chan []byte

	// Регистрация нового клиента
	register chan *Client

	// Отмена регистрации клиента
	unregister chan *Client

	// Сигнал остановки Run
	stop chan struct{}

	// Счётчик сообщений, отброшенных из-за переполнения каналов
	dropped atomic.Int64

	// Mutex для потокобезопасного доступа к clients
	mu sync.RWMutex
}

// NewHub создает новый Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
	}
}

// Run запускает главный цикл Hub.
// Должен запускаться в отдельной горутине: go hub.Run().
//
// Рассылка идет без удержания блокировки: список клиентов копируется
// под коротким RLock, медленные клиенты удаляются отдельно под Lock.
func (h *Hub) Run() {
	for {
		select {
		case <-h.stop:
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			engine.WebsocketClients.Set(float64(total))
			utils.Logger().Debugw("websocket client connected", "total", total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			engine.WebsocketClients.Set(float64(total))
			utils.Logger().Debugw("websocket client disconnected", "total", total)

		case message := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			var toRemove []*Client
			for _, client := range clients {
				select {
				case client.send <- message:
				default:
					// Клиент не успевает обрабатывать сообщения
					toRemove = append(toRemove, client)
				}
			}

			if len(toRemove) > 0 {
				h.mu.Lock()
				for _, client := range toRemove {
					if _, ok := h.clients[client]; ok {
						delete(h.clients, client)
						close(client.send)
					}
				}
				total := len(h.clients)
				h.mu.Unlock()
				engine.WebsocketClients.Set(float64(total))
				utils.Logger().Warnw("removed slow websocket clients",
					"removed", len(toRemove), "total", total)
			}
		}
	}
}

// Stop останавливает цикл Run и закрывает все соединения
func (h *Hub) Stop() {
	close(h.stop)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
	}
	engine.WebsocketClients.Set(0)
}

// Broadcast сериализует сообщение и рассылает его всем клиентам.
// Не блокируется: при переполнении канала рассылки сообщение
// отбрасывается и учитывается в счётчике.
func (h *Hub) Broadcast(message interface{}) {
	buf := jsonBufferPool.Get().(*bytes.Buffer)
	buf.Reset()

	if err := json.NewEncoder(buf).Encode(message); err != nil {
		utils.Logger().Errorw("failed to marshal broadcast message", "error", err)
		jsonBufferPool.Put(buf)
		return
	}

	// Trailing newline от Encode не нужен
	data := buf.Bytes()
	if len(data) > 0 && data[len(data)-1] == '\n' {
		data = data[:len(data)-1]
	}

	msgCopy := make([]byte, len(data))
	copy(msgCopy, data)
	jsonBufferPool.Put(buf)

	select {
	case h.broadcast <- msgCopy:
	default:
		h.dropped.Add(1)
		engine.WebsocketDropped.Inc()
	}
}

// BroadcastQuote отправляет котировку символа
func (h *Hub) BroadcastQuote(msg *QuoteMessage) {
	h.Broadcast(msg)
}

// BroadcastCandle отправляет свечу текущего бакета
func (h *Hub) BroadcastCandle(msg *CandleMessage) {
	h.Broadcast(msg)
}

// ClientCount возвращает количество подключенных клиентов
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// DroppedMessages возвращает количество отброшенных сообщений
func (h *Hub) DroppedMessages() int64 {
	return h.dropped.Load()
}
