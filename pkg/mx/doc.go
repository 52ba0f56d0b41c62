// Copyright (c) 2025 SWIFT FIN Connector Authors
// SPDX-License-Identifier: BSD-2-Clause

/*
Package mx implements the ISO 20022 MX codec: parsing XML documents
into the unified message model and generating payment documents.

# Parsing

Parse accepts a standalone Document, an AppHdr (business application
header) or a full business envelope, with or without namespace
prefixes. The message type is derived from the document namespace
(urn:iso:std:iso:20022:tech:xsd:pacs.008.001.08 yields
"pacs.008.001.08") or from the MsgDefIdr of the application header.

Extracted fields:
  - IntrBkSttlmAmt and its Ccy attribute (settlement amount)
  - EndToEndId (sender's reference)
  - UETR (unique end-to-end transaction reference)
  - InstgAgt/InstdAgt or Fr/To BICFI (sender and receiver)

Documents with unexpected namespaces still parse with Format MX and
best-effort field extraction.

# Generation

BuildPacs008 constructs a minimal FI-to-FI customer credit transfer.
Serialization returns the original document bytes for parsed messages,
so an MX message round-trips exactly.

# References

  - ISO 20022 message catalogue: https://www.iso20022.org/iso-20022-message-definitions
  - CBPR+ usage guidelines: https://www.swift.com/standards/iso-20022
*/
package mx
