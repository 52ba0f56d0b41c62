// Copyright (c) 2025 SWIFT FIN Connector Authors
// SPDX-License-Identifier: BSD-2-Clause

/*
Package mt implements the FIN MT wire codec: parsing block-structured
frames into the unified message model and serializing messages back to
wire form.

# Block Structure

An MT frame is a sequence of braced blocks in ascending order:

	{1:F01BANKBEBBAXXX0001000001}   basic header
	{2:I103BANKUS33AXXXN}           application header (input or output form)
	{3:{108:MUR}{121:UETR}}         user header, optional
	{4:                             body, ":tag:value" lines ending in "-"
	:20:REF-1
	:32A:240110USD1000,00
	:59:ACME CORP
	-}
	{5:{CHK:123456789ABC}}          trailers, optional

Parsing preserves the exact bytes of the application header and body,
and the tag order of the user header and trailers, so Serialize
reproduces a parsed frame byte for byte. Stamping a sequence number
rewrites only the basic header.

# Service Frames

Acknowledgements travel as service-ID 21 frames whose body carries
braced tags: {451:0} accepts a message, {451:1} rejects it with the
reject code in {405:} and the correlated message user reference in
{108:}.

# Errors

Frames violating the block grammar produce errors wrapping ErrSyntax
with a description of the offending construct. Short buffers are
syntax errors, never panics.

# References

  - SWIFT FIN frame layout: SWIFT User Handbook, FIN System Messages
  - ISO 15022 field dictionary: https://www.iso15022.org/
*/
package mt
