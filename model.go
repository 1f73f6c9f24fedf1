package tsdemux

// Default PIDs skipped unless Config overrides them: the null packet PID,
// the reserved DVB-MIP PID, the CAT PID (CA descriptors are out of scope)
// and the NIT PID (decoded only when the caller's PID options let it
// through).
var defaultSkipPIDs = map[uint16]bool{
	PIDNull: true,
	0x0015:  true,
	0x0001:  true,
	0x0010:  true,
}

// Config controls what a Demuxer decodes and reports, built with the
// DemuxerOpt functional options below. This mirrors the teacher's own
// options-struct-plus-functional-setters shape.
type Config struct {
	targetPIDs map[uint16]bool
	skipPIDs   map[uint16]bool

	skipPES bool
	skipPSI bool

	ignoreAdaptation bool
	ignorePayload    bool

	hidePacketSeen bool

	strict bool

	logger Logger
}

// DemuxerOpt configures a Demuxer at construction time.
type DemuxerOpt func(*Config)

// DemuxerOptTargetPIDs restricts decoding to exactly these PIDs. Mutually
// exclusive with DemuxerOptSkipPIDs; whichever is applied last wins.
func DemuxerOptTargetPIDs(pids ...uint16) DemuxerOpt {
	return func(c *Config) {
		c.targetPIDs = make(map[uint16]bool, len(pids))
		for _, p := range pids {
			c.targetPIDs[p] = true
		}
		c.skipPIDs = nil
	}
}

// DemuxerOptSkipPIDs decodes every PID except these, replacing the default
// skip set. Mutually exclusive with DemuxerOptTargetPIDs.
func DemuxerOptSkipPIDs(pids ...uint16) DemuxerOpt {
	return func(c *Config) {
		c.skipPIDs = make(map[uint16]bool, len(pids))
		for _, p := range pids {
			c.skipPIDs[p] = true
		}
		c.targetPIDs = nil
	}
}

// DemuxerOptSkipPES disables PES header decoding; PES-classified payloads
// are still consumed but no PESData is produced.
func DemuxerOptSkipPES() DemuxerOpt { return func(c *Config) { c.skipPES = true } }

// DemuxerOptSkipPSI disables PSI/SI section decoding.
func DemuxerOptSkipPSI() DemuxerOpt { return func(c *Config) { c.skipPSI = true } }

// DemuxerOptIgnoreAdaptation suppresses adaptation field events: neither
// EventAdaptationDecoded nor EventAdaptationMalformed is emitted, so
// PCR/OPCR are never reported. The field itself is still parsed and
// Packet.AdaptationField is still populated.
func DemuxerOptIgnoreAdaptation() DemuxerOpt { return func(c *Config) { c.ignoreAdaptation = true } }

// DemuxerOptIgnorePayload skips payload classification and reassembly
// entirely; only packet/header/adaptation-field events are produced.
func DemuxerOptIgnorePayload() DemuxerOpt { return func(c *Config) { c.ignorePayload = true } }

// DemuxerOptHidePacketSeen suppresses the high-volume EventPacketSeen
// event, which a caller rarely wants once the pipeline is working.
func DemuxerOptHidePacketSeen() DemuxerOpt { return func(c *Config) { c.hidePacketSeen = true } }

// DemuxerOptStrict makes a CRC failure fatal: the failing section is not
// decoded and NextEvent returns an error in place of the CRCFailure event.
// Descriptor overflow and malformed BCD are still reported as events.
func DemuxerOptStrict() DemuxerOpt { return func(c *Config) { c.strict = true } }

// DemuxerOptLogger attaches a Logger; defaults to a no-op logger.
func DemuxerOptLogger(l Logger) DemuxerOpt {
	return func(c *Config) {
		if l == nil {
			l = defaultLogger
		}
		c.logger = l
	}
}

func newConfig(opts ...DemuxerOpt) *Config {
	c := &Config{skipPIDs: defaultSkipPIDs, logger: defaultLogger}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Config) wants(pid uint16) bool {
	if c.targetPIDs != nil {
		return c.targetPIDs[pid]
	}
	return !c.skipPIDs[pid]
}

// Model is the accumulated SI/PSI state for one transport stream: the
// latest decoded table per PID-keyed map, plus the continuity counter
// state. A Demuxer owns exactly one Model.
type Model struct {
	PAT map[uint16]*PATData // keyed by the PAT's own PID, almost always 0x0000
	PMT map[uint16]*PMTData // keyed by PMT PID
	SDT map[uint16]*SDTData // keyed by the carrying PID (0x0011 normally)
	EIT map[uint16]*EITData
	TDT *TDTData
	TOT *TOTData
	NIT map[uint16]*NITData

	LastCC map[uint16]uint8
}

func newModel() *Model {
	return &Model{
		PAT:    make(map[uint16]*PATData),
		PMT:    make(map[uint16]*PMTData),
		SDT:    make(map[uint16]*SDTData),
		EIT:    make(map[uint16]*EITData),
		NIT:    make(map[uint16]*NITData),
		LastCC: make(map[uint16]uint8),
	}
}
