// Package tsdemux implements an MPEG-2 Transport Stream demultiplexer and
// DVB/SI section decoder: it resynchronizes on 188-byte packets, tracks
// per-PID continuity, reassembles PSI/SI sections spanning multiple
// packets, validates them against the MPEG-2 CRC-32, and decodes PAT, PMT,
// SDT, EIT, TDT, TOT and NIT into a running model.
//
// https://en.wikipedia.org/wiki/MPEG_transport_stream
// https://www.etsi.org/deliver/etsi_en/300400_300499/300468/
package tsdemux
