// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkasampler

import "strings"

// Parameter names understood by ParseConfig.  The Kafka producer names are
// kept so existing test plans carry over unchanged.
const (
	ParamBootstrapServers   = "bootstrap.servers"
	ParamZooKeeperServers   = "zookeeper.servers"
	ParamTopic              = "kafka.topic.name"
	ParamTopicShardStrategy = "topic.shard.strategy"
	ParamKeySerializer      = "key.serializer"
	ParamValueSerializer    = "value.serializer"
	ParamCompressionType    = "compression.type"
	ParamBatchSize          = "batch.size"
	ParamLingerMS           = "linger.ms"
	ParamBufferMemory       = "buffer.memory"
	ParamBufferRecords      = "buffer.records"
	ParamAcks               = "acks"
	ParamAckTimeoutMS       = "ack.timeout.ms"
	ParamFlushAfterSend     = "flush.after.send"
	ParamLegacyHold         = "legacy.hold.on.failure"
	ParamSendBuffer         = "send.buffer.bytes"
	ParamReceiveBuffer      = "receive.buffer.bytes"
	ParamRequestTimeoutMS   = "request.timeout.ms"
	ParamRetries            = "retries"
	ParamCleanupTimeoutMS   = "cleanup.timeout.ms"
	ParamClientID           = "client.id"

	ParamSecurityProtocol = "security.protocol"
	ParamSASLMechanism    = "sasl.mechanism"
	ParamSASLUsername     = "sasl.username"
	ParamSASLPassword     = "sasl.password"

	ParamKerberosEnabled     = "kerberos.auth.enabled"
	ParamKerberosConfig      = "kerberos.krb5.config"
	ParamKerberosKeytab      = "kerberos.keytab"
	ParamKerberosPrincipal   = "kerberos.principal"
	ParamKerberosServiceName = "sasl.kerberos.service.name"

	ParamSSLEnabled             = "ssl.enabled"
	ParamSSLCALocation          = "ssl.ca.location"
	ParamSSLCertificateLocation = "ssl.certificate.location"
	ParamSSLKeyLocation         = "ssl.key.location"
	ParamSSLEndpointIdentify    = "ssl.endpoint.identification.enabled"

	ParamKeyedMessage          = "keyed.message"
	ParamMessageKeyPlaceholder = "message.key.placeholder"
	ParamMessagePlaceholder    = "message.placeholder"

	ParamWRPSource = "wrp.source"
)

const (
	// FlagYes and FlagNo are the values of the boolean parameters.
	FlagYes = "YES"
	FlagNo  = "NO"

	// PassthroughPrefix marks a parameter that is handed to the client
	// verbatim, with the prefix removed.
	PassthroughPrefix = "_"

	// HeaderPrefix marks a parameter that becomes a record header.
	HeaderPrefix = "header."

	// ZooKeeperPlaceholder is the default coordinator value.  Leaving it in
	// place disables broker discovery.
	ZooKeeperPlaceholder = "<Zookeeper List>"

	// TopicPlaceholder is the default topic value.  It must be replaced.
	TopicPlaceholder = "<Topic>"
)

// Parameters is the flat option table a driver hands to the sampler.
type Parameters map[string]string

// DefaultParameters returns every known parameter with its default value.
func DefaultParameters() Parameters {
	return Parameters{
		ParamBootstrapServers:   "localhost:9092",
		ParamZooKeeperServers:   ZooKeeperPlaceholder,
		ParamTopic:              TopicPlaceholder,
		ParamTopicShardStrategy: "",
		ParamKeySerializer:      SerializerString,
		ParamValueSerializer:    SerializerString,
		ParamCompressionType:    string(CompressionNone),
		ParamBatchSize:          "16384",
		ParamLingerMS:           "0",
		ParamBufferMemory:       "33554432",
		ParamBufferRecords:      "0",
		ParamAcks:               "1",
		ParamAckTimeoutMS:       "0",
		ParamFlushAfterSend:     FlagYes,
		ParamLegacyHold:         FlagNo,
		ParamSendBuffer:         "131072",
		ParamReceiveBuffer:      "32768",
		ParamRequestTimeoutMS:   "0",
		ParamRetries:            "0",
		ParamCleanupTimeoutMS:   "0",
		ParamClientID:           "kafkasampler",

		ParamSecurityProtocol: string(ProtocolPlaintext),
		ParamSASLMechanism:    string(MechanismGSSAPI),
		ParamSASLUsername:     "",
		ParamSASLPassword:     "",

		ParamKerberosEnabled:     FlagNo,
		ParamKerberosConfig:      "/etc/krb5.conf",
		ParamKerberosKeytab:      "",
		ParamKerberosPrincipal:   "",
		ParamKerberosServiceName: "kafka",

		ParamSSLEnabled:             FlagNo,
		ParamSSLCALocation:          "",
		ParamSSLCertificateLocation: "",
		ParamSSLKeyLocation:         "",
		ParamSSLEndpointIdentify:    FlagYes,

		ParamKeyedMessage:          FlagNo,
		ParamMessageKeyPlaceholder: "MESSAGE_KEY",
		ParamMessagePlaceholder:    "MESSAGE",

		ParamWRPSource: "dns:kafkasampler",
	}
}

// withDefaults returns a copy of p with every missing parameter filled in
// from DefaultParameters.
func (p Parameters) withDefaults() Parameters {
	merged := DefaultParameters()
	for k, v := range p {
		merged[k] = v
	}
	return merged
}

// prefixed returns the parameters starting with prefix, keyed by the rest of
// the name.  Parameters whose name is only the prefix are skipped.
func (p Parameters) prefixed(prefix string) map[string]string {
	out := make(map[string]string)
	for k, v := range p {
		if len(k) > len(prefix) && strings.HasPrefix(k, prefix) {
			out[k[len(prefix):]] = v
		}
	}
	return out
}

func isYes(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), FlagYes)
}

// splitList splits a comma separated list, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
