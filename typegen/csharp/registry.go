package csharp

import (
	"fmt"
	"strings"

	"github.com/nodetool-ai/nodetool-sdk/typegen"
)

// RegistryFile is the name of the global registration file
const RegistryFile = "NodeToolTypes.cs"

// GenerateRegistry renders NodeToolTypes (implements typegen.Generator).
//
// The known-types list is built once, in entry order, by calling every
// package Register routine. A Lazy cell in ExecutionAndPublication mode
// guards the build, so concurrent first use initializes exactly once.
func (g *Generator) GenerateRegistry(entries []typegen.RegistryEntry) string {
	var sb strings.Builder
	sb.WriteString(Header)
	sb.WriteString(`
using System;
using System.Collections.Generic;
using System.Threading;
using MessagePack;
using MessagePack.Resolvers;

`)
	sb.WriteString(fmt.Sprintf("namespace %s;\n", g.namespace))
	sb.WriteString(`
public static class NodeToolTypes
{
    private static readonly Lazy<Registration> registration =
        new Lazy<Registration>(Build, LazyThreadSafetyMode.ExecutionAndPublication);

    public static MessagePackSerializerOptions Options => registration.Value.Options;

    public static IReadOnlyList<Type> KnownTypes => registration.Value.KnownTypes;

    public static void Initialize()
    {
        _ = registration.Value;
    }

    private static Registration Build()
    {
        var known = new List<Type>();
`)
	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("        global::%s.%s.Register(known);\n",
			Namespace(g.namespace, e.Kind, e.Package), RegistryClass))
	}
	sb.WriteString(`
        var resolver = CompositeResolver.Create(
            StandardResolver.Instance,
            DynamicObjectResolver.Instance);
        var options = MessagePackSerializerOptions.Standard.WithResolver(resolver);
        MessagePackSerializer.DefaultOptions = options;

        foreach (var type in known)
        {
            options.Resolver.GetFormatterDynamic(type);
        }

        return new Registration(options, known.AsReadOnly());
    }

    private sealed class Registration
    {
        public Registration(MessagePackSerializerOptions options, IReadOnlyList<Type> knownTypes)
        {
            Options = options;
            KnownTypes = knownTypes;
        }

        public MessagePackSerializerOptions Options { get; }

        public IReadOnlyList<Type> KnownTypes { get; }
    }
}
`)
	return sb.String()
}
