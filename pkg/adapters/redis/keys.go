package redis

import "time"

const (
	defaultPrefix  = "vizkit:"
	defaultTimeout = 500 * time.Millisecond
	// farFuture scores index entries of tasks announced without TTL.
	farFuture = 4102444800 // 2100-01-01
)

type keys struct {
	prefix string
}

func (k keys) index() string             { return k.prefix + "index" }
func (k keys) task(name string) string   { return k.prefix + "task:" + name }
func (k keys) ports(name string) string  { return k.prefix + "task:" + name + ":ports" }
func (k keys) props(name string) string  { return k.prefix + "task:" + name + ":props" }
func (k keys) sample(t, p string) string { return k.prefix + "sample:" + t + ":" + p }
func (k keys) seq(t, p string) string    { return k.prefix + "seq:" + t + ":" + p }
func (k keys) prop(t, p string) string   { return k.prefix + "prop:" + t + ":" + p }
