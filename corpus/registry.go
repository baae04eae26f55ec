package corpus

import (
	"github.com/m-lab/pkt-engine/layer"
	"github.com/m-lab/pkt-engine/layer12/radiotap"
	"github.com/m-lab/pkt-engine/layer3/ip4"
	"github.com/m-lab/pkt-engine/layer4/udp"
	"github.com/m-lab/pkt-engine/layer567/dns"
)

// protocols maps a Fixture's Protocol column to the constructor that parses
// a standalone (lowest-layer) buffer of that kind.
var protocols = map[string]func([]byte) (layer.Layer, error){
	"radiotap": func(buf []byte) (layer.Layer, error) { return radiotap.New(buf) },
	"ip4":      func(buf []byte) (layer.Layer, error) { return ip4.New(buf) },
	"udp":      func(buf []byte) (layer.Layer, error) { return udp.New(buf) },
	"dns":      func(buf []byte) (layer.Layer, error) { return dns.New(buf) },
}
