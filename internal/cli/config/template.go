package config

const contextTemplateYAML = `# Context catalog template for declansx.
# Uncomment and edit what you need; commented sections are optional.
contexts:
  - name: lab

    # Required NSX manager endpoint.
    manager:
      base-url: https://nsx.example.com

      # Mutually exclusive: choose exactly one auth method. Credential
      # fields accept secret references ("secret:<name>") resolved from the
      # secret store at session build time.
      auth:
        session-token:
          username: admin
          password: secret:nsx-admin
        # basic-auth:
        #   username: admin
        #   password: change-me
        # bearer-token:
        #   token: change-me

      # Optional TLS.
      # tls:
      #   ca-cert-file: /path/to/ca.pem
      #   client-cert-file: /path/to/client.pem
      #   client-key-file: /path/to/client-key.pem
      #   insecure-skip-verify: false

      # Optional request defaults.
      # default-headers:
      #   X-Allow-Overwrite: "true"
      # rate-limit: 10
      # timeout-seconds: 30

      # Optional version gate enforced by "declansx config check".
      # min-version: 4.1.0

    # Required inventory holding the desired-state documents.
    inventory:
      # Optional document format used when saving: json or yaml (default yaml).
      # format: yaml

      # Mutually exclusive: choose exactly one inventory backend.
      git:
        local:
          base-dir: /path/to/inventory
          # auto-init: true

        # Optional git remote to sync the inventory with.
        # remote:
        #   url: https://example.com/org/inventory.git
        #   branch: main
        #   auto-sync: false
        #
        #   # Optional remote auth, exactly one method.
        #   auth:
        #     basic-auth:
        #       username: bot
        #       password: change-me
        #     # ssh:
        #     #   user: git
        #     #   private-key-file: ~/.ssh/id_ed25519
        #     #   passphrase: change-me
        #     #   known-hosts-file: ~/.ssh/known_hosts
        #     #   insecure-ignore-host-key: false
        #     # access-key:
        #     #   token: change-me

      # filesystem:
      #   base-dir: /path/to/inventory

    # Optional credential store backing "secret:" references.
    # secret-store:
    #   file:
    #     path: /path/to/secrets.age
    #     # Exactly one key source may be set.
    #     passphrase: change-me
    #     # key: base64-key-material
    #     # key-file: /path/to/key.b64
    #     # passphrase-file: /path/to/passphrase
    #     # Optional argon2id cost overrides.
    #     # kdf:
    #     #   time: 1
    #     #   memory: 65536
    #     #   threads: 4

    # Optional per-context defaults.
    # defaults:
    #   domain: default
    #   output: table

current-ctx: lab

# Optional editor used by "declansx config edit".
# default-editor: vi
`
