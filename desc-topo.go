package netsynth

// file desc-topo.go holds structs, methods, and data structures supporting
// the construction of and access to descriptions of routed networks
// (routers, switches, and the point-to-point links between them)

import (
	"encoding/json"
	"fmt"
	"net/netip"
	"os"
	"path"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

// DeviceKind distinguishes routers from switches
type DeviceKind string

const (
	Router DeviceKind = "router"
	Switch DeviceKind = "switch"
)

// LinkKind tags a link with the role the generator gave it.
// Analysis ignores it, cost rewrites and reporting consult it.
type LinkKind string

const (
	BackboneLink    LinkKind = "backbone"
	CrossLink       LinkKind = "cross"
	AccessLink      LinkKind = "access"
	IntraRegionLink LinkKind = "intra_region"
	HubSpokeLink    LinkKind = "hub_spoke"
	RingLink        LinkKind = "ring"
	CoreLink        LinkKind = "core"
	AggregationLink LinkKind = "aggregation"
	LeafSpineLink   LinkKind = "leaf_spine"
	RedundancyLink  LinkKind = "redundancy"
)

// maxDeviceNameLen bounds the length of a device name
const maxDeviceNameLen = 20

// To most easily serialize and deserialize the structs involved in describing
// a topology, we ensure that they are completely described without pointers.
// On the other hand it is easiest to build topologies incrementally if we allow pointers
// (e.g. a link that knows the device frames at its ends, a device that counts its interfaces).
// Our approach then is to define two representations for each kind of structure.  One
// has the final appellation of 'Frame', and holds pointers.  The pointer free version
// has the final appellation of 'Desc'.  After completely building the structures using
// Frames we transform each into a Desc version for serialization and analysis.

// DeviceDesc is the serializable description of a router or switch
type DeviceDesc struct {
	// Name is the unique string identifier used to reference the device
	Name string `json:"name" yaml:"name"`

	Kind DeviceKind `json:"kind" yaml:"kind"`

	// RouterID and ASN are given to routers only
	RouterID string `json:"routerid,omitempty" yaml:"routerid,omitempty"`
	ASN      int    `json:"asn,omitempty" yaml:"asn,omitempty"`
}

// LinkEndDesc describes one end of a link: the device, the interface on it, and its address
type LinkEndDesc struct {
	Device    string `json:"device" yaml:"device"`
	Interface string `json:"interface" yaml:"interface"`
	IP        string `json:"ip" yaml:"ip"`
}

// LinkDesc is the serializable description of a point-to-point link.
// Links are undirected for analysis; a pattern may emit a pair of records in
// opposite directions so that each end can carry its own cost.
type LinkDesc struct {
	Src        LinkEndDesc `json:"src" yaml:"src"`
	Dst        LinkEndDesc `json:"dst" yaml:"dst"`
	SubnetMask string      `json:"subnetmask" yaml:"subnetmask"`
	Cost       int         `json:"cost" yaml:"cost"`
	Kind       LinkKind    `json:"kind,omitempty" yaml:"kind,omitempty"`
}

// ID returns the identifier of the link used when naming it as a failed element
func (ld *LinkDesc) ID() string {
	return ld.Src.Device + "-" + ld.Dst.Device
}

// Topology is the serializable description of a complete network
type Topology struct {
	Name            string       `json:"name" yaml:"name"`
	RoutingProtocol string       `json:"routingprotocol" yaml:"routingprotocol"`
	NumRouters      int          `json:"numrouters" yaml:"numrouters"`
	NumSwitches     int          `json:"numswitches" yaml:"numswitches"`
	Devices         []DeviceDesc `json:"devices" yaml:"devices"`
	Links           []LinkDesc   `json:"links" yaml:"links"`
}

// DeviceNames returns the names of the devices, in topology order
func (topo *Topology) DeviceNames() []string {
	names := make([]string, len(topo.Devices))
	for idx, dev := range topo.Devices {
		names[idx] = dev.Name
	}
	return names
}

// Device returns the description of the named device, and a flag indicating whether it was found
func (topo *Topology) Device(name string) (DeviceDesc, bool) {
	for _, dev := range topo.Devices {
		if dev.Name == name {
			return dev, true
		}
	}
	return DeviceDesc{}, false
}

// DevicesOfKind returns the names of the devices of the given kind, in topology order
func (topo *Topology) DevicesOfKind(kind DeviceKind) []string {
	names := []string{}
	for _, dev := range topo.Devices {
		if dev.Kind == kind {
			names = append(names, dev.Name)
		}
	}
	return names
}

// Validate checks the structural invariants of a topology: device names are non-empty,
// unique and not too long, every link end names a device, no link is a self loop,
// and every cost is positive.
func (topo *Topology) Validate() error {
	known := make(map[string]bool)
	for _, dev := range topo.Devices {
		if len(dev.Name) == 0 || len(dev.Name) > maxDeviceNameLen {
			return errors.Wrapf(ErrInconsistentTopology, "device name %q must have 1 to %d characters", dev.Name, maxDeviceNameLen)
		}
		if known[dev.Name] {
			return errors.Wrapf(ErrInconsistentTopology, "device name %s is duplicated", dev.Name)
		}
		if dev.Kind != Router && dev.Kind != Switch {
			return errors.Wrapf(ErrInconsistentTopology, "device %s has unknown kind %q", dev.Name, dev.Kind)
		}
		known[dev.Name] = true
	}

	for idx, link := range topo.Links {
		if !known[link.Src.Device] || !known[link.Dst.Device] {
			return errors.Wrapf(ErrInconsistentTopology, "link %d (%s) references a missing device", idx, link.ID())
		}
		if link.Src.Device == link.Dst.Device {
			return errors.Wrapf(ErrInconsistentTopology, "link %d is a loop on %s", idx, link.Src.Device)
		}
		if link.Cost <= 0 {
			return errors.Wrapf(ErrInconsistentTopology, "link %s has cost %d", link.ID(), link.Cost)
		}
	}
	return nil
}

// Clone returns a deep copy of the topology
func (topo *Topology) Clone() *Topology {
	cpy := *topo
	cpy.Devices = slices.Clone(topo.Devices)
	cpy.Links = slices.Clone(topo.Links)
	return &cpy
}

// WriteToFile stores the Topology struct to the file whose name is given.
// Serialization to json or to yaml is selected based on the extension of this name.
func (topo *Topology) WriteToFile(filename string) error {
	return writeDesc(filename, topo)
}

// ReadTopology deserializes a byte slice holding a representation of a Topology struct.
// If the input argument of dict (those bytes) is empty, the file whose name is given is read
// to acquire them.  A deserialized representation is returned, or an error if one is generated
// from a file read, the deserialization, or the structural check of the result.
func ReadTopology(filename string, useYAML bool, dict []byte) (*Topology, error) {
	topo := Topology{}
	if err := readDesc(filename, useYAML, dict, &topo); err != nil {
		return nil, err
	}
	if err := topo.Validate(); err != nil {
		return nil, err
	}

	return &topo, nil
}

// useYAMLFor reports whether a file name selects yaml serialization
func useYAMLFor(filename string) bool {
	pathExt := strings.ToLower(path.Ext(filename))
	return pathExt == ".yaml" || pathExt == ".yml"
}

// writeDesc serializes a Desc struct to yaml or json, by the extension of filename
func writeDesc(filename string, desc any) error {
	var bytes []byte
	var merr error

	pathExt := strings.ToLower(path.Ext(filename))
	switch {
	case useYAMLFor(filename):
		bytes, merr = yaml.Marshal(desc)
	case pathExt == ".json":
		bytes, merr = json.MarshalIndent(desc, "", "\t")
	default:
		return fmt.Errorf("file %s: extension must be .yaml, .yml or .json", filename)
	}
	if merr != nil {
		return errors.Wrapf(merr, "serializing %s", filename)
	}

	return errors.Wrapf(os.WriteFile(filename, bytes, 0o644), "writing %s", filename)
}

// readDesc deserializes dict (or, if empty, the contents of filename) into desc
func readDesc(filename string, useYAML bool, dict []byte, desc any) error {
	var err error

	// if the dict slice of bytes is empty we get them from the file whose name is an argument
	if len(dict) == 0 {
		dict, err = os.ReadFile(filename)
		if err != nil {
			return errors.Wrapf(err, "reading %s", filename)
		}
	}

	if useYAML {
		err = yaml.Unmarshal(dict, desc)
	} else {
		err = json.Unmarshal(dict, desc)
	}
	return errors.Wrapf(err, "decoding %s", filename)
}

// DeviceFrame describes a device in pre-serialized form.  It counts the interfaces
// created on it so that interface names are unique on the device
type DeviceFrame struct {
	Name     string
	Kind     DeviceKind
	RouterID string
	ASN      int

	// number of interfaces created so far
	numIntrfcs int
}

// nextIntrfc returns the name of a fresh interface on the device
func (df *DeviceFrame) nextIntrfc() string {
	name := fmt.Sprintf("eth%d", df.numIntrfcs)
	df.numIntrfcs += 1
	return name
}

// Transform returns a serializable DeviceDesc, transformed from a DeviceFrame
func (df *DeviceFrame) Transform() DeviceDesc {
	return DeviceDesc{Name: df.Name, Kind: df.Kind, RouterID: df.RouterID, ASN: df.ASN}
}

// LinkFrame describes a link in pre-serialized form
type LinkFrame struct {
	Src, Dst             *DeviceFrame
	SrcIntrfc, DstIntrfc string
	SrcIP, DstIP         netip.Addr
	Mask                 string
	Cost                 int
	Kind                 LinkKind
}

// Transform returns a serializable LinkDesc, transformed from a LinkFrame
func (lf *LinkFrame) Transform() LinkDesc {
	return LinkDesc{
		Src:        LinkEndDesc{Device: lf.Src.Name, Interface: lf.SrcIntrfc, IP: lf.SrcIP.String()},
		Dst:        LinkEndDesc{Device: lf.Dst.Name, Interface: lf.DstIntrfc, IP: lf.DstIP.String()},
		SubnetMask: lf.Mask,
		Cost:       lf.Cost,
		Kind:       lf.Kind,
	}
}

// The TopoFrame struct gives the highest level structure of a topology under construction
type TopoFrame struct {
	Name            string
	RoutingProtocol string
	Devices         []*DeviceFrame
	Links           []*LinkFrame

	devByName map[string]*DeviceFrame

	// connected records the unordered device pairs joined by at least one link
	connected map[[2]string]bool

	// addresses hands out the subnet for each new link
	addresses subnetPlan
}

// CreateTopoFrame is a constructor.  The subnet plan chooses how link addresses are carved out
func CreateTopoFrame(name, protocol string, plan subnetPlan) *TopoFrame {
	tf := new(TopoFrame)
	tf.Name = name
	tf.RoutingProtocol = protocol
	tf.Devices = make([]*DeviceFrame, 0)
	tf.Links = make([]*LinkFrame, 0)
	tf.devByName = make(map[string]*DeviceFrame)
	tf.connected = make(map[[2]string]bool)
	tf.addresses = plan
	return tf
}

// CreateTopoFrameFrom rebuilds a frame from an existing topology, so that
// links can be added to (or costs changed on) a copy of it.  New links take
// subnets from the point-to-point plan, starting past the links already present.
func CreateTopoFrameFrom(topo *Topology) *TopoFrame {
	tf := CreateTopoFrame(topo.Name, topo.RoutingProtocol, &p2pPlan{next: len(topo.Links)})
	for _, dev := range topo.Devices {
		tf.addDevice(dev.Name, dev.Kind, dev.RouterID, dev.ASN)
	}
	for _, link := range topo.Links {
		src := tf.devByName[link.Src.Device]
		dst := tf.devByName[link.Dst.Device]
		srcIP, _ := netip.ParseAddr(link.Src.IP)
		dstIP, _ := netip.ParseAddr(link.Dst.IP)
		lf := &LinkFrame{Src: src, Dst: dst, SrcIntrfc: link.Src.Interface, DstIntrfc: link.Dst.Interface,
			SrcIP: srcIP, DstIP: dstIP, Mask: link.SubnetMask, Cost: link.Cost, Kind: link.Kind}
		tf.Links = append(tf.Links, lf)
		tf.connected[pairOf(src.Name, dst.Name)] = true

		// keep fresh interface names clear of the ones already in use
		src.numIntrfcs = max(src.numIntrfcs, intrfcIndex(link.Src.Interface)+1)
		dst.numIntrfcs = max(dst.numIntrfcs, intrfcIndex(link.Dst.Interface)+1)
	}
	return tf
}

// intrfcIndex extracts the counter from an interface name of the form eth<n>, -1 otherwise
func intrfcIndex(name string) int {
	var idx int
	if _, err := fmt.Sscanf(name, "eth%d", &idx); err != nil {
		return -1
	}
	return idx
}

// pairOf returns the unordered (sorted) key for a pair of device names
func pairOf(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

func (tf *TopoFrame) addDevice(name string, kind DeviceKind, routerID string, asn int) *DeviceFrame {
	df := &DeviceFrame{Name: name, Kind: kind, RouterID: routerID, ASN: asn}
	tf.Devices = append(tf.Devices, df)
	tf.devByName[name] = df
	return df
}

// AddRouter adds a router numbered idx (used to derive its router id and ASN)
func (tf *TopoFrame) AddRouter(name string, idx int) *DeviceFrame {
	return tf.addDevice(name, Router, RouterID(idx), 65000+idx)
}

// AddSwitch adds a switch
func (tf *TopoFrame) AddSwitch(name string) *DeviceFrame {
	return tf.addDevice(name, Switch, "", 0)
}

// AddDevice adds a device of the given kind, numbered idx
func (tf *TopoFrame) AddDevice(name string, kind DeviceKind, idx int) *DeviceFrame {
	if kind == Router {
		return tf.AddRouter(name, idx)
	}
	return tf.AddSwitch(name)
}

// Connected reports whether the two named devices are already joined by a link
func (tf *TopoFrame) Connected(a, b string) bool {
	return tf.connected[pairOf(a, b)]
}

// ConnectDevs joins the two named devices with a link drawn from a fresh subnet.
// When twin is set a second record is emitted in the reverse direction, on the same
// subnet and interfaces, so that each direction can carry its own cost.
func (tf *TopoFrame) ConnectDevs(a, b string, cost int, kind LinkKind, twin bool) error {
	src, srcOK := tf.devByName[a]
	dst, dstOK := tf.devByName[b]
	if !srcOK || !dstOK {
		return errors.Wrapf(ErrInconsistentTopology, "link %s-%s references a missing device", a, b)
	}
	if a == b {
		return errors.Wrapf(ErrInconsistentTopology, "link %s-%s is a loop", a, b)
	}

	srcIP, dstIP, mask, err := tf.addresses.nextSubnet()
	if err != nil {
		return err
	}

	lf := &LinkFrame{Src: src, Dst: dst, SrcIntrfc: src.nextIntrfc(), DstIntrfc: dst.nextIntrfc(),
		SrcIP: srcIP, DstIP: dstIP, Mask: mask, Cost: cost, Kind: kind}
	tf.Links = append(tf.Links, lf)

	if twin {
		rev := &LinkFrame{Src: dst, Dst: src, SrcIntrfc: lf.DstIntrfc, DstIntrfc: lf.SrcIntrfc,
			SrcIP: dstIP, DstIP: srcIP, Mask: mask, Cost: cost, Kind: kind}
		tf.Links = append(tf.Links, rev)
	}
	tf.connected[pairOf(a, b)] = true

	return nil
}

// SetCosts rewrites the cost of every link whose kind has an entry in costs
func (tf *TopoFrame) SetCosts(costs map[LinkKind]int) {
	for _, lf := range tf.Links {
		if cost, present := costs[lf.Kind]; present {
			lf.Cost = cost
		}
	}
}

// Transform transforms the slices of pointers to devices and links
// into slices of instances of those objects, for serialization and analysis
func (tf *TopoFrame) Transform() *Topology {
	topo := new(Topology)
	topo.Name = tf.Name
	topo.RoutingProtocol = tf.RoutingProtocol

	topo.Devices = make([]DeviceDesc, 0, len(tf.Devices))
	for _, df := range tf.Devices {
		topo.Devices = append(topo.Devices, df.Transform())
		if df.Kind == Router {
			topo.NumRouters += 1
		} else {
			topo.NumSwitches += 1
		}
	}

	topo.Links = make([]LinkDesc, 0, len(tf.Links))
	for _, lf := range tf.Links {
		topo.Links = append(topo.Links, lf.Transform())
	}

	return topo
}
