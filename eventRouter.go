package main

import (
	"log"
)

// mapEvent is pushed to websocket clients as JSON.
type mapEvent struct {
	Action string `json:"action"`
	Data   any    `json:"data"`
}

type mapEventRouter struct {
	connect    chan chan mapEvent
	disconnect chan chan mapEvent
	events     chan mapEvent
	clients    chan int
}

var (
	globalEventRouter = newMapEventRouter()
)

func newMapEventRouter() *mapEventRouter {
	return &mapEventRouter{
		connect:    make(chan chan mapEvent, 16),
		disconnect: make(chan chan mapEvent, 16),
		events:     make(chan mapEvent, 256),
		clients:    make(chan int),
	}
}

func (router *mapEventRouter) Run(exitchan <-chan struct{}) {
	clients := map[chan mapEvent]bool{}
	for {
		select {
		case <-exitchan:
			for c := range clients {
				close(c)
			}
			return
		case c := <-router.connect:
			clients[c] = true
		case c := <-router.disconnect:
			if clients[c] {
				delete(clients, c)
				close(c)
			}
		case router.clients <- len(clients):
		case e := <-router.events:
			for c := range clients {
				select {
				case c <- e:
				default:
					log.Printf("Event %v dropped!", e.Action)
				}
			}
		}
	}
}

func (router *mapEventRouter) Connect() chan mapEvent {
	c := make(chan mapEvent, 256)
	router.connect <- c
	return c
}

func (router *mapEventRouter) Disconnect(c chan mapEvent) {
	router.disconnect <- c
}

// Broadcast never blocks, events are dropped when the router lags behind.
func (router *mapEventRouter) Broadcast(e mapEvent) {
	select {
	case router.events <- e:
	default:
		log.Printf("Event %v dropped, router queue is full", e.Action)
	}
}

// Clients returns the number of connected clients.
func (router *mapEventRouter) Clients() int {
	return <-router.clients
}
