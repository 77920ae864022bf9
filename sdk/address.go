package sdk

import "strings"

type AddressDomain string

const (
	AddressDomainUser     AddressDomain = "user"
	AddressDomainContract AddressDomain = "contract"
	AddressDomainSystem   AddressDomain = "system"
)

// Address is the opaque principal identifier handed around by the host.
// Users look like "user:alice", programs like "contract:lottery".
type Address string

// User builds a user principal.
// Example payload: sdk.User("alice")
func User(name string) Address {
	return Address("user:" + name)
}

// Contract builds the address under which a program instance is registered.
// Example payload: sdk.Contract("marketplace")
func Contract(name string) Address {
	return Address("contract:" + name)
}

// String returns the literal representation (like user:alice) of the address.
func (a Address) String() string {
	return string(a)
}

// Domain quickly checks the prefix to tell user/contract/system principals apart.
// Example payload: sdk.Address("contract:lottery").Domain()
func (a Address) Domain() AddressDomain {
	if strings.HasPrefix(a.String(), "system:") {
		return AddressDomainSystem
	}
	if strings.HasPrefix(a.String(), "contract:") {
		return AddressDomainContract
	}
	return AddressDomainUser
}

// IsContract is a shorthand for Domain() == AddressDomainContract.
func (a Address) IsContract() bool {
	return a.Domain() == AddressDomainContract
}

// IsValid rejects the empty principal and anything carrying the key separators.
func (a Address) IsValid() bool {
	if a == "" {
		return false
	}
	return !strings.ContainsAny(a.String(), "|\x00")
}
