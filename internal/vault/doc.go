// Copyright (c) 2025 Latchkey Authors
// Latchkey - typestate password vault
// This source code is licensed under the MIT license found in the LICENSE file.

// package vault implements the typestate core of Latchkey. A vault's lock
// state is part of its type: Vault[Locked] and Vault[Unlocked] share one
// generic definition, and the operations that read or modify entries are
// declared only for the Unlocked instantiation. Passing a locked vault to
// Get, Set or Lock is a compile error, not a runtime check.
//
// Go does not allow methods on a single instantiation of a generic type, so
// state-specific operations are package functions taking the concrete
// instantiation (Unlock(v Vault[Locked], ...), Get(v *Vault[Unlocked], ...)).
// The marker types Locked and Unlocked are zero-size and carry no runtime
// state; there is no isUnlocked flag anywhere.
//
// Ownership discipline: Unlock returns a new Vault[Unlocked] value and Lock
// consumes it, wiping the decrypted entries and the derived key in place.
// The locked value a caller keeps across an Unlock only ever holds sealed
// bytes, so retaining it grants nothing. A vault value (in either state)
// belongs to one goroutine at a time; share across goroutines only behind
// external synchronization.
package vault
