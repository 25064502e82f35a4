// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkasampler

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"strings"

	krbclient "github.com/jcmturner/gokrb5/v8/client"
	krbconfig "github.com/jcmturner/gokrb5/v8/config"
	"github.com/jcmturner/gokrb5/v8/keytab"
	"github.com/twmb/franz-go/pkg/sasl"
	"github.com/twmb/franz-go/pkg/sasl/kerberos"
	"github.com/twmb/franz-go/pkg/sasl/plain"
	"github.com/twmb/franz-go/pkg/sasl/scram"
)

// SecurityProtocol selects transport encryption and authentication.
type SecurityProtocol string

const (
	// ProtocolPlaintext uses neither TLS nor SASL.
	ProtocolPlaintext SecurityProtocol = "PLAINTEXT"

	// ProtocolSSL dials brokers over TLS.
	ProtocolSSL SecurityProtocol = "SSL"

	// ProtocolSASLPlaintext authenticates with SASL over plain connections.
	ProtocolSASLPlaintext SecurityProtocol = "SASL_PLAINTEXT"

	// ProtocolSASLSSL authenticates with SASL over TLS.
	ProtocolSASLSSL SecurityProtocol = "SASL_SSL"
)

// SASLMechanism names a SASL authentication mechanism.
type SASLMechanism string

const (
	// MechanismPlain sends the username and password as is.
	MechanismPlain SASLMechanism = "PLAIN"

	// MechanismScramSHA256 uses SCRAM with SHA-256.
	MechanismScramSHA256 SASLMechanism = "SCRAM-SHA-256"

	// MechanismScramSHA512 uses SCRAM with SHA-512.
	MechanismScramSHA512 SASLMechanism = "SCRAM-SHA-512"

	// MechanismGSSAPI uses Kerberos.  It requires kerberos.auth.enabled=YES.
	MechanismGSSAPI SASLMechanism = "GSSAPI"
)

// SecurityConfig holds the TLS and SASL settings of a session.  Credentials
// are only ever applied to the client built from this config.
type SecurityConfig struct {
	Protocol SecurityProtocol

	// TLS material, read only when SSLEnabled is set.
	SSLEnabled          bool
	CALocation          string
	CertificateLocation string
	KeyLocation         string

	// SkipHostVerify disables broker hostname verification.
	SkipHostVerify bool

	Mechanism SASLMechanism
	Username  string
	Password  string

	// Kerberos settings, used only when KerberosEnabled is set.
	KerberosEnabled     bool
	KerberosConfig      string
	KerberosKeytab      string
	KerberosPrincipal   string
	KerberosServiceName string
}

func parseSecurityConfig(p Parameters) SecurityConfig {
	return SecurityConfig{
		Protocol:            SecurityProtocol(strings.ToUpper(strings.TrimSpace(p[ParamSecurityProtocol]))),
		SSLEnabled:          isYes(p[ParamSSLEnabled]),
		CALocation:          strings.TrimSpace(p[ParamSSLCALocation]),
		CertificateLocation: strings.TrimSpace(p[ParamSSLCertificateLocation]),
		KeyLocation:         strings.TrimSpace(p[ParamSSLKeyLocation]),
		SkipHostVerify:      strings.EqualFold(strings.TrimSpace(p[ParamSSLEndpointIdentify]), FlagNo),
		Mechanism:           SASLMechanism(strings.ToUpper(strings.TrimSpace(p[ParamSASLMechanism]))),
		Username:            p[ParamSASLUsername],
		Password:            p[ParamSASLPassword],
		KerberosEnabled:     isYes(p[ParamKerberosEnabled]),
		KerberosConfig:      strings.TrimSpace(p[ParamKerberosConfig]),
		KerberosKeytab:      strings.TrimSpace(p[ParamKerberosKeytab]),
		KerberosPrincipal:   strings.TrimSpace(p[ParamKerberosPrincipal]),
		KerberosServiceName: strings.TrimSpace(p[ParamKerberosServiceName]),
	}
}

func (s SecurityConfig) usesTLS() bool {
	return s.Protocol == ProtocolSSL || s.Protocol == ProtocolSASLSSL
}

func (s SecurityConfig) usesSASL() bool {
	return s.Protocol == ProtocolSASLPlaintext || s.Protocol == ProtocolSASLSSL
}

// validate checks the settings without touching any files.
func (s SecurityConfig) validate() error {
	switch s.Protocol {
	case ProtocolPlaintext, ProtocolSSL, ProtocolSASLPlaintext, ProtocolSASLSSL:
	default:
		return errors.Join(ErrConfiguration,
			fmt.Errorf("%s '%s' is invalid: must be 'PLAINTEXT', 'SSL', 'SASL_PLAINTEXT' or 'SASL_SSL'",
				ParamSecurityProtocol, s.Protocol))
	}

	if s.SSLEnabled && (s.CertificateLocation == "") != (s.KeyLocation == "") {
		return errors.Join(ErrConfiguration,
			fmt.Errorf("%s and %s must be set together", ParamSSLCertificateLocation, ParamSSLKeyLocation))
	}

	if !s.usesSASL() {
		return nil
	}

	switch s.Mechanism {
	case MechanismPlain, MechanismScramSHA256, MechanismScramSHA512:
		if s.Username == "" {
			return errors.Join(ErrConfiguration,
				fmt.Errorf("%s is required for %s", ParamSASLUsername, s.Mechanism))
		}
	case MechanismGSSAPI:
		if !s.KerberosEnabled {
			return errors.Join(ErrConfiguration,
				fmt.Errorf("%s requires %s=%s", MechanismGSSAPI, ParamKerberosEnabled, FlagYes))
		}
		for name, v := range map[string]string{
			ParamKerberosConfig:      s.KerberosConfig,
			ParamKerberosKeytab:      s.KerberosKeytab,
			ParamKerberosPrincipal:   s.KerberosPrincipal,
			ParamKerberosServiceName: s.KerberosServiceName,
		} {
			if v == "" {
				return errors.Join(ErrConfiguration, fmt.Errorf("%s is required for %s", name, MechanismGSSAPI))
			}
		}
		if _, _, ok := strings.Cut(s.KerberosPrincipal, "@"); !ok {
			return errors.Join(ErrConfiguration,
				fmt.Errorf("%s '%s' must be in user@REALM format", ParamKerberosPrincipal, s.KerberosPrincipal))
		}
	default:
		return errors.Join(ErrConfiguration,
			fmt.Errorf("%s '%s' is invalid: must be 'PLAIN', 'SCRAM-SHA-256', 'SCRAM-SHA-512' or 'GSSAPI'",
				ParamSASLMechanism, s.Mechanism))
	}

	return nil
}

// tlsConfig builds the TLS configuration, or nil when the protocol does not
// use TLS.
func (s SecurityConfig) tlsConfig() (*tls.Config, error) {
	if !s.usesTLS() {
		return nil, nil
	}

	cfg := &tls.Config{MinVersion: tls.VersionTLS12}

	// Certificates are still verified against the CA, only the hostname
	// check is skipped.
	if s.SkipHostVerify {
		cfg.InsecureSkipVerify = true
		cfg.VerifyConnection = verifyChain(cfg)
	}

	if !s.SSLEnabled {
		return cfg, nil
	}

	if s.CALocation != "" {
		pem, err := os.ReadFile(s.CALocation)
		if err != nil {
			return nil, errors.Join(ErrConfiguration, fmt.Errorf("reading %s: %w", ParamSSLCALocation, err))
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, errors.Join(ErrConfiguration,
				fmt.Errorf("%s '%s' contains no PEM certificates", ParamSSLCALocation, s.CALocation))
		}
		cfg.RootCAs = pool
	}

	if s.CertificateLocation != "" {
		cert, err := tls.LoadX509KeyPair(s.CertificateLocation, s.KeyLocation)
		if err != nil {
			return nil, errors.Join(ErrConfiguration, fmt.Errorf("loading client certificate: %w", err))
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	return cfg, nil
}

// mechanism builds the SASL mechanism, or nil when the protocol does not use
// SASL.
func (s SecurityConfig) mechanism() (sasl.Mechanism, error) {
	if !s.usesSASL() {
		return nil, nil
	}

	switch s.Mechanism {
	case MechanismPlain:
		return plain.Auth{User: s.Username, Pass: s.Password}.AsMechanism(), nil
	case MechanismScramSHA256:
		return scram.Auth{User: s.Username, Pass: s.Password}.AsSha256Mechanism(), nil
	case MechanismScramSHA512:
		return scram.Auth{User: s.Username, Pass: s.Password}.AsSha512Mechanism(), nil
	case MechanismGSSAPI:
		return s.kerberosMechanism()
	}

	return nil, errors.Join(ErrConfiguration, fmt.Errorf("unsupported %s '%s'", ParamSASLMechanism, s.Mechanism))
}

func (s SecurityConfig) kerberosMechanism() (sasl.Mechanism, error) {
	krb5, err := krbconfig.Load(s.KerberosConfig)
	if err != nil {
		return nil, errors.Join(ErrConfiguration, fmt.Errorf("loading %s: %w", ParamKerberosConfig, err))
	}

	kt, err := keytab.Load(s.KerberosKeytab)
	if err != nil {
		return nil, errors.Join(ErrConfiguration, fmt.Errorf("loading %s: %w", ParamKerberosKeytab, err))
	}

	user, realm, _ := strings.Cut(s.KerberosPrincipal, "@")
	cl := krbclient.NewWithKeytab(user, realm, kt, krb5, krbclient.DisablePAFXFAST(true))

	return kerberos.Auth{
		Client:  cl,
		Service: s.KerberosServiceName,
	}.AsMechanism(), nil
}

// verifyChain checks the peer chain against cfg.RootCAs without matching the
// server name.
func verifyChain(cfg *tls.Config) func(tls.ConnectionState) error {
	return func(cs tls.ConnectionState) error {
		if len(cs.PeerCertificates) == 0 {
			return errors.New("broker presented no certificate")
		}
		opts := x509.VerifyOptions{
			Roots:         cfg.RootCAs,
			Intermediates: x509.NewCertPool(),
		}
		for _, c := range cs.PeerCertificates[1:] {
			opts.Intermediates.AddCert(c)
		}
		_, err := cs.PeerCertificates[0].Verify(opts)
		return err
	}
}
