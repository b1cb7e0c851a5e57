package netsynth

import (
	"fmt"
	"net/netip"

	"github.com/pkg/errors"
)

// subnetPlan hands out the addressing for successive links: the address of each
// end and the subnet mask they share
type subnetPlan interface {
	nextSubnet() (netip.Addr, netip.Addr, string, error)
}

// campusPlan numbers link subnets 10.(100+i).1.0/24, ends at .1 and .2.
// It serves the small count-based topologies, and has room for 156 links.
type campusPlan struct {
	next int
}

func (cp *campusPlan) nextSubnet() (netip.Addr, netip.Addr, string, error) {
	if cp.next > 155 {
		return netip.Addr{}, netip.Addr{}, "", errors.Wrapf(ErrInvalidParameterRange, "campus subnet plan exhausted after %d links", cp.next)
	}
	octet := byte(100 + cp.next)
	cp.next += 1
	return netip.AddrFrom4([4]byte{10, octet, 1, 1}), netip.AddrFrom4([4]byte{10, octet, 1, 2}), "255.255.255.0", nil
}

// p2pPlan carves /30 subnets sequentially out of 10.0.0.0/8, which leaves room
// for the full mesh of the largest pattern topology
type p2pPlan struct {
	next int
}

// p2pLimit is the number of /30 subnets in 10.0.0.0/8
const p2pLimit = 1 << 22

func (pp *p2pPlan) nextSubnet() (netip.Addr, netip.Addr, string, error) {
	if pp.next >= p2pLimit {
		return netip.Addr{}, netip.Addr{}, "", errors.Wrap(ErrInvalidParameterRange, "point-to-point subnet plan exhausted")
	}
	base := uint32(10)<<24 | uint32(pp.next)<<2
	pp.next += 1
	return addrOf(base + 1), addrOf(base + 2), "255.255.255.252", nil
}

func addrOf(v uint32) netip.Addr {
	return netip.AddrFrom4([4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}

// RouterID derives the OSPF router id of the router numbered idx
func RouterID(idx int) string {
	return fmt.Sprintf("10.%d.%d.1", idx/254+1, idx%254+1)
}
