package telegram

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"
)

// Handler turns one incoming chat message into a reply.
type Handler func(ctx context.Context, text string) (string, error)

// errorReply is what the chat sees when the pipeline fails; the underlying
// error goes to the log, never to the chat.
const errorReply = "Error processing your request"

// queueDepth bounds how many unprocessed messages a relay will hold. A chat
// that floods the bot past this simply loses the overflow.
const queueDepth = 16

// pollRetryDelay paces the loop when GetUpdates fails outright. Instant
// failures (connection refused, DNS) would otherwise spin the poller.
const pollRetryDelay = 3 * time.Second

// Relay runs the message loop for one active agent: a poller goroutine
// feeding a bounded queue, and a single consumer working it off. The single
// consumer is what guarantees at most one generate-and-execute cycle runs
// per agent at a time.
type Relay struct {
	client  *Client
	chatID  string
	handler Handler
	log     *slog.Logger

	cancel context.CancelFunc
	done   sync.WaitGroup
	queue  chan string
}

// NewRelay creates a relay for one bot token and chat. Call Start to begin
// polling.
func NewRelay(client *Client, chatID string, handler Handler, log *slog.Logger) *Relay {
	return &Relay{
		client:  client,
		chatID:  chatID,
		handler: handler,
		log:     log,
		queue:   make(chan string, queueDepth),
	}
}

// Start launches the poll and consume loops. It returns immediately.
func (r *Relay) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	r.done.Add(2)
	go r.poll(ctx)
	go r.consume(ctx)
}

// Stop cancels both loops and waits for them to exit. Queued messages that
// were never picked up are dropped.
func (r *Relay) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.done.Wait()
}

func (r *Relay) poll(ctx context.Context) {
	defer r.done.Done()
	defer close(r.queue)

	var offset int64
	for {
		if ctx.Err() != nil {
			return
		}

		updates, err := r.client.GetUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.log.Warn("telegram poll failed", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(pollRetryDelay):
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			if u.Message == nil || u.Message.Text == "" {
				continue
			}
			// Only the configured chat may drive this agent.
			if strconv.FormatInt(u.Message.Chat.ID, 10) != r.chatID {
				continue
			}

			select {
			case r.queue <- u.Message.Text:
			default:
				r.log.Warn("telegram queue full, dropping message", "chat_id", r.chatID)
			}
		}
	}
}

func (r *Relay) consume(ctx context.Context) {
	defer r.done.Done()

	for text := range r.queue {
		if err := r.client.SendTyping(ctx, r.chatID); err != nil {
			r.log.Warn("telegram typing indicator failed", "error", err)
		}

		reply, err := r.handler(ctx, text)
		if err != nil {
			r.log.Error("telegram message handling failed", "error", err)
			reply = errorReply
		}

		if err := r.client.SendMessage(ctx, r.chatID, reply); err != nil {
			if ctx.Err() != nil {
				return
			}
			r.log.Error("telegram reply failed", "error", err)
		}
	}
}
