// Package credentials provides credentials sources for the remote update
// store.
//
// Each source publishes the latest credentials state and fires an
// invalidation event when previously published credentials must stop
// being used:
//
//   - AccessKeySource holds a static key pair with explicit sign-in and sign-out.
//   - ProviderSource resolves credentials through an AWS credentials provider.
//   - FileSource reads a TOML key file and follows changes to it.
package credentials
