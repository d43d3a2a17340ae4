// Package protocol decodes heart-rate measurement notifications sent by a
// Polar H7 style chest strap.
//
// Every notification starts with a status byte. 0x04 and 0x06 mean the strap
// has poor skin contact; 0x16 means the strap is producing valid data. The
// second byte is the heart rate in bpm and the rest are up to four RR
// intervals, each a little-endian uint16 in 1/1024 second units:
//
//	0x16 0x53 0x16 0x03        HR 83, RR 0x0316 = 790/1024 s = 771.48 ms
//	0x16 0x53 0x16 0x03 0xE4 0x02   HR 83, RR 771.48 ms and 722.66 ms
package protocol
