// Copyright (c) 2025 SWIFT FIN Connector Authors
// SPDX-License-Identifier: BSD-2-Clause

/*
Package store defines the durable key-value contract behind the engine:
session sequence counters, the reject-code dictionary, investigation
cases and rejection records all persist through one Store.

# Contract

Store is an opaque key to bytes mapping. Implementations must be safe
for concurrent use, must return ErrKeyNotFound (possibly wrapped) from
Get for absent keys, and must treat Delete of an absent key as a no-op.

# Key Namespace

All engine state shares a single Store, namespaced by well-known
prefixes built by the helper functions in this package:

	session.{bic}.inputSeq    last accepted inbound sequence number
	session.{bic}.outputSeq   last assigned outbound sequence number
	reject.dictionary         serialized reject-code definitions
	case.{id}                 investigation case document
	case.index.{messageID}    message to case reverse index
	rejection.{messageID}     write-once rejection record

# Backends

Three implementations ship with the engine:

  - Memory: mutex-guarded map for tests and ephemeral deployments
  - badgerdb: embedded durable store (dgraph-io/badger)
  - mongodb: shared server-backed store (mongo-driver)
*/
package store
