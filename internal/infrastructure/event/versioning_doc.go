package event

/*
Event Versioning
================

Outbox payloads outlive the code that wrote them: an entry serialized last
month may be replayed after the event struct has gained or lost fields. The
versioning layer keeps old payloads readable.

How it fits together
--------------------

1. BaseDomainEvent.Version
   - Every event carries a schema_version field (defaults to 1)
   - Payloads without the field are treated as version 1

2. EventUpgrader
   - Transforms a payload from one version to the next
   - Upgraders chain sequentially (v1->v2, v2->v3, ...)

3. VersionRegistry
   - Tracks each event type's known versions and upgrader chain

4. VersionedSerializer
   - Implements the same Serializer interface the outbox uses
   - Upgrades stale payloads transparently during Deserialize

Registering a simple (single-version) event:

	serializer := NewVersionedSerializer(logger)
	serializer.Register("StockAdded", &ledger.StockAddedEvent{})

Evolving a schema: suppose LowStockDetectedEvent gains a severity field.

	type LowStockDetectedEventV2 struct {
	    shared.BaseDomainEvent
	    // ... v1 fields plus:
	    Severity string `json:"severity"`
	}

	v1ToV2 := NewBaseEventUpgrader(1, 2, func(data map[string]any) (map[string]any, error) {
	    data["severity"] = "warning" // default for historical payloads
	    return data, nil
	})

	err := serializer.RegisterVersioned(
	    "LowStockDetected",
	    2,
	    map[int]shared.DomainEvent{
	        1: &ledger.LowStockDetectedEvent{},
	        2: &ledger.LowStockDetectedEventV2{},
	    },
	    v1ToV2,
	)

Ground rules
------------

- Bump the version for any field rename, removal, type change, or new
  required field. Additive optional fields with defaults still deserve a
  bump so upgraders can backfill them.
- Upgraders must be deterministic and tolerate missing fields.
- Never rename an event type string; routing and stored entries key on it.
  A rename is a new event type.
- Register the upgrader before deploying code that emits the new version,
  otherwise a rolling deploy can write payloads an old node cannot read.

Failure behavior
----------------

- Unknown event type: Deserialize returns an error, entry goes to retry
- Missing upgrader in the chain: error names the exact version gap
- Upgrade failure: error returned, stored payload left untouched
- Unparseable version field: payload treated as version 1
*/
